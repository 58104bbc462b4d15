package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/dataminer/internal/utils"
)

// RegisterValidators 注册自定义校验规则，需在注册路由前调用
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	// startdate: 能被解析的日期（2024-01-01、2024/01/01 12:00 等）
	return v.RegisterValidation("startdate", func(fl validator.FieldLevel) bool {
		_, ok := utils.ParseDateTime(fl.Field().String())
		return ok
	})
}
