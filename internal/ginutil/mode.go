package ginutil

import (
	"os"

	"github.com/gin-gonic/gin"
)

// SetMode sets the gin mode from GIN_MODE, defaulting to release mode so
// that gin does not print its debug route table into the server log.
func SetMode() {
	mode := os.Getenv(gin.EnvGinMode)
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}
