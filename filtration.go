// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"errors"
	"fmt"
)

// Whenever runs block only if cond holds; otherwise the case is filtered out.
// Use it inside a consumer to reject cases a generator cannot rule out.
func Whenever(cond bool, block func() error) error {
	if !cond {
		return ErrFiltered
	}
	return block()
}

// Filtered returns an ErrFiltered-matching error with a reason attached.
func Filtered(reason string) error {
	return fmt.Errorf("%w: %s", ErrFiltered, reason)
}

// InlinedFiltration runs test code under a scope that reclassifies chosen
// errors as rejections of the case rather than failures.
type InlinedFiltration struct {
	reject func()
}

// Execute runs block. When block returns or panics with an error matching
// ErrFiltered or one of filtrationErrs, the case is rejected and Execute
// reports false with a nil error. Other errors are returned as they are;
// other panics propagate.
func (f InlinedFiltration) Execute(block func() error, filtrationErrs ...error) (ran bool, err error) {
	filtering := func(err error) bool {
		if isFiltration(err) {
			return true
		}
		for _, target := range filtrationErrs {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if perr, ok := r.(error); ok && filtering(perr) {
			f.rejected()
			ran, err = false, nil
			return
		}
		panic(r)
	}()
	if err := block(); err != nil {
		if filtering(err) {
			f.rejected()
			return false, nil
		}
		return true, err
	}
	return true, nil
}

func (f InlinedFiltration) rejected() {
	if f.reject != nil {
		f.reject()
	}
}
