package providers

import (
	"fmt"

	"github.com/gookit/validate"

	"dbd/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("config validation: %s", v.Errors.One())
	}
	if cv.conf.Chain.BatchThreshold < 1 {
		return fmt.Errorf("config validation: chain.batchThreshold must be at least 1")
	}
	return nil
}
