package isvalid

import "github.com/AndrewConway/ConcreteSTV/util"

var InvalidError = util.NewError("invalid")

type IsValider interface {
	IsValid([]byte) error
}
