package util

import "github.com/gin-gonic/gin"

// ParamsToMap binds the request body into the given params type. Handlers
// pair it with Validator.Struct before touching any field.
func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	err := c.ShouldBindJSON(&params)

	return params, err
}
