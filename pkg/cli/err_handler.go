package cli

import (
	"go.uber.org/zap"
)

type ErrorHandler struct {
	Verbose       bool
	PostPrintHook func()
}

func (h ErrorHandler) PrintErr(err error) {
	h.printErr(err, 0)
	if h.PostPrintHook != nil {
		h.PostPrintHook()
	}
}

// printErr logs err, numbering each error joined into it.
func (h ErrorHandler) printErr(err error, num int) (nextNum int) {
	log := zap.L()

	errFmt := "%v"
	if h.Verbose {
		errFmt = "%+v"
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		switch len(errs) {
		case 0:
			return num
		case 1:
			return h.printErr(errs[0], num)
		default:
			log.Sugar().Errorf("%d errors:", len(errs))
			for _, e := range errs {
				num = h.printErr(e, num)
			}
			return num
		}
	}

	log.Sugar().Errorf("[err %d] "+errFmt, num+1, err)
	return num + 1
}
