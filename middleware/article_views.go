package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

// ArticleViewRecorder counts successful article reads per day and path.
func ArticleViewRecorder(stats *repository.StatsRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path := c.Request.URL.Path
		if path != "/articles" && !strings.HasPrefix(path, "/articles/") {
			return
		}
		if err := stats.RecordView(c.Request.Context(), path, time.Now()); err != nil {
			utils.Logger.Warn("record article view", zap.String("path", path), zap.Error(err))
		}
	}
}
