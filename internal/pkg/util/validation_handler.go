package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 携带第一条失败规则的可读信息，仍可 errors.As 出 ValidationErrors
type ValidationError struct {
	msg  string
	errs validator.ValidationErrors
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Unwrap() error { return e.errs }

// ValidateDTO 按 validate 标签校验请求体
func ValidateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		first := vErrs[0]
		return &ValidationError{
			msg:  fmt.Sprintf("字段 [%s] 校验失败，规则 [%s]", first.Field(), first.Tag()),
			errs: vErrs,
		}
	}
	return err
}
