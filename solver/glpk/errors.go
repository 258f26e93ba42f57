/*
Copyright © 2015 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
import "C"

import (
	"fmt"
)

func glpkError(err C.int) error {
	switch err {
	case 0:
		return nil
	case C.GLP_EBADB:
		return fmt.Errorf("initial basis invalid")
	case C.GLP_ESING:
		return fmt.Errorf("initial basis is exactly singular")
	case C.GLP_ECOND:
		return fmt.Errorf("initial basis is ill-conditioned")
	case C.GLP_EBOUND:
		return fmt.Errorf("double-bounded (auxiliary or structural) variables has incorrect bounds")
	case C.GLP_EFAIL:
		return fmt.Errorf("problem instance has no rows/columns")
	case C.GLP_EITLIM:
		return fmt.Errorf("simplex iteration limit exceeded")
	case C.GLP_ETMLIM:
		return fmt.Errorf("time limit exceeded")
	case C.GLP_EROOT:
		return fmt.Errorf("optimal basis for initial LP relaxation not provided and presolver not used")
	case C.GLP_ENOPFS:
		return fmt.Errorf("LP relaxation of MIP problem has no primal feasible solution")
	case C.GLP_ENODFS:
		return fmt.Errorf("LP relaxation of MIP problem has no dual feasible solution")
	case C.GLP_EMIPGAP:
		return fmt.Errorf("MIP gap tolerance exceeded")
	default:
		return fmt.Errorf("unknown glpk error: %d", err)
	}
}
