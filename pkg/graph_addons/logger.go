package graph_addons

import (
	"github.com/dominikbraun/graph"
	"go.uber.org/zap"
)

// LoggingGraph logs every mutation, successful or not, at debug level.
type LoggingGraph[K comparable, T any] struct {
	graph.Graph[K, T]

	Log  *zap.Logger
	Hash func(T) K
}

func (g LoggingGraph[K, T]) AddVertex(value T, options ...func(*graph.VertexProperties)) error {
	err := g.Graph.AddVertex(value, options...)
	if err != nil {
		g.Log.Sugar().Debugf("AddVertex(%v) error: %v", g.Hash(value), err)
	} else {
		g.Log.Sugar().Debugf("AddVertex(%v)", g.Hash(value))
	}
	return err
}

func (g LoggingGraph[K, T]) RemoveVertex(hash K) error {
	err := g.Graph.RemoveVertex(hash)
	if err != nil {
		g.Log.Sugar().Debugf("RemoveVertex(%v) error: %v", hash, err)
	} else {
		g.Log.Sugar().Debugf("RemoveVertex(%v)", hash)
	}
	return err
}

func (g LoggingGraph[K, T]) AddEdge(source K, target K, options ...func(*graph.EdgeProperties)) error {
	err := g.Graph.AddEdge(source, target, options...)
	if err != nil {
		g.Log.Sugar().Debugf("AddEdge(%v -> %v) error: %v", source, target, err)
		return err
	}
	e, _ := g.Graph.Edge(source, target)
	if e.Properties.Data == nil {
		g.Log.Sugar().Debugf("AddEdge(%v -> %v)", source, target)
	} else {
		g.Log.Sugar().Debugf("AddEdge(%v -> %v, %+v)", source, target, e.Properties.Data)
	}
	return nil
}

func (g LoggingGraph[K, T]) RemoveEdge(source K, target K) error {
	err := g.Graph.RemoveEdge(source, target)
	if err != nil {
		g.Log.Sugar().Debugf("RemoveEdge(%v -> %v) error: %v", source, target, err)
	} else {
		g.Log.Sugar().Debugf("RemoveEdge(%v -> %v)", source, target)
	}
	return err
}

func (g LoggingGraph[K, T]) Clone() (graph.Graph[K, T], error) {
	cloned, err := g.Graph.Clone()
	if err != nil {
		return nil, err
	}
	return LoggingGraph[K, T]{Graph: cloned, Log: g.Log, Hash: g.Hash}, nil
}
