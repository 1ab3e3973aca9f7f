package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charge-optimizer/internal/api/models"
	"charge-optimizer/internal/model"
)

// ListStrategies handles GET /optimize/strategies
func ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, []models.StrategyInfo{
		{
			Name:        string(model.StrategyNone),
			Description: "Pure cost optimization without secondary preferences.",
		},
		{
			Name:        string(model.StrategyChargeBeforeExport),
			Description: "Among equally priced schedules, fill batteries before exporting surplus.",
		},
		{
			Name:        string(model.StrategyAttenuateGridPeaks),
			Description: "Among equally priced schedules, charge in steps with high generation to flatten export peaks.",
		},
	})
}
