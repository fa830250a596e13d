package project

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

type (
	Task struct {
		Name        string
		Description string
		Steps       []Step
		Env         map[string]string
		ReceiveArgs bool

		// Locked tasks can only be reset with force.
		Locked bool
	}

	// Step is one of Exec, Say or Spawn (the name of another task of the same project).
	Step struct {
		Name  string
		Exec  string
		Say   string
		Spawn string
		Cwd   string
	}

	TaskOptions struct {
		Description string
		Exec        string
		Steps       []Step
		Env         map[string]string
		ReceiveArgs bool
		Locked      bool
	}

	// TaskSet is an ordered mapping from task name to task. Iteration follows insertion order.
	TaskSet struct {
		order []string
		tasks map[string]*Task
	}
)

func NewTaskSet() *TaskSet {
	return &TaskSet{tasks: make(map[string]*Task)}
}

// Add inserts or replaces the task named name. A replaced task keeps its position.
func (ts *TaskSet) Add(name string, opts TaskOptions) *Task {
	t := &Task{
		Name:        name,
		Description: opts.Description,
		Env:         copyEnv(opts.Env),
		ReceiveArgs: opts.ReceiveArgs,
		Locked:      opts.Locked,
	}
	t.Steps = append(t.Steps, opts.Steps...)
	if opts.Exec != "" {
		t.Exec(opts.Exec)
	}
	if _, exists := ts.tasks[name]; !exists {
		ts.order = append(ts.order, name)
	}
	ts.tasks[name] = t
	return t
}

func (ts *TaskSet) TryFind(name string) *Task {
	return ts.tasks[name]
}

func (ts *TaskSet) All() []*Task {
	all := make([]*Task, 0, len(ts.order))
	for _, name := range ts.order {
		all = append(all, ts.tasks[name])
	}
	return all
}

func (ts *TaskSet) Names() []string {
	return append([]string(nil), ts.order...)
}

func (ts *TaskSet) Len() int {
	return len(ts.order)
}

func (t *Task) Exec(command string) {
	t.Steps = append(t.Steps, Step{Exec: command})
}

func (t *Task) PrependExec(command string) {
	t.Steps = append([]Step{{Exec: command}}, t.Steps...)
}

func (t *Task) Say(message string) {
	t.Steps = append(t.Steps, Step{Say: message})
}

func (t *Task) Spawn(other *Task) {
	t.Steps = append(t.Steps, Step{Spawn: other.Name})
}

func (t *Task) SetEnv(key, value string) {
	if t.Env == nil {
		t.Env = make(map[string]string)
	}
	t.Env[key] = value
}

// Reset removes all steps and then execs commands. Locked tasks are left unchanged.
func (t *Task) Reset(commands ...string) error {
	if t.Locked {
		return fmt.Errorf("task %q is locked", t.Name)
	}
	t.ForceReset(commands...)
	return nil
}

// ForceReset is Reset for locked tasks too. The task is unlocked afterwards.
func (t *Task) ForceReset(commands ...string) {
	t.Locked = false
	t.Steps = nil
	for _, c := range commands {
		t.Exec(c)
	}
}

// Commands returns the exec commands of all steps, in order.
func (t *Task) Commands() []string {
	var cmds []string
	for _, s := range t.Steps {
		if s.Exec != "" {
			cmds = append(cmds, s.Exec)
		}
	}
	return cmds
}

// ValidateCommand checks that command is non-empty and can be split into words like a shell would.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is empty")
	}
	words, err := shlex.Split(command)
	if err != nil {
		return fmt.Errorf("command %q cannot be parsed: %w", command, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("command %q has no words", command)
	}
	return nil
}

func (t *Task) Validate() error {
	var errs []string
	for i, s := range t.Steps {
		set := 0
		for _, v := range []string{s.Exec, s.Say, s.Spawn} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			errs = append(errs, fmt.Sprintf("step %d must have exactly one of exec, say or spawn", i))
			continue
		}
		if s.Exec != "" {
			if err := ValidateCommand(s.Exec); err != nil {
				errs = append(errs, fmt.Sprintf("step %d: %v", i, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("task %q: %s", t.Name, strings.Join(errs, "; "))
	}
	return nil
}

func copyEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	cp := make(map[string]string, len(env))
	for k, v := range env {
		cp[k] = v
	}
	return cp
}
