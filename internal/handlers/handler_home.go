package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHealth reports that the server is up.
func getHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
