package controllers

import (
	"net/http"
	"sort"
	"strconv"

	"tw_scanner_backend/models"
	"tw_scanner_backend/services/categories"
	"tw_scanner_backend/services/institutional"
	"tw_scanner_backend/services/layout"

	"github.com/gin-gonic/gin"
)

// InstitutionalController handles institutional flow and layout endpoints
type InstitutionalController struct{}

// NewInstitutionalController creates a new institutional controller
func NewInstitutionalController() *InstitutionalController {
	return &InstitutionalController{}
}

func institutionalUnavailable(c *gin.Context) bool {
	if institutional.GlobalInstitutionalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Institutional service not initialized"})
		return true
	}
	return false
}

func categoryParam(c *gin.Context) (models.InvestorCategory, bool) {
	raw := c.DefaultQuery("category", string(models.InvestorForeign))
	for _, cat := range models.AllInvestorCategories {
		if string(cat) == raw {
			return cat, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "category must be foreign, trust or dealer"})
	return "", false
}

// GetLatest returns the most recent combined three-category nets
// GET /api/v1/institutional/latest
func (ctrl *InstitutionalController) GetLatest(c *gin.Context) {
	if institutionalUnavailable(c) {
		return
	}

	date, nets, err := institutional.GlobalInstitutionalService.LatestCombined()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"results": []interface{}{}, "count": 0, "error": true})
		return
	}

	results := make([]institutional.CombinedNet, 0, len(nets))
	for _, n := range nets {
		results = append(results, n)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].NetShares > results[j].NetShares })

	limit := limitParam(c, 50)
	total := len(results)
	if limit < total {
		results = results[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"results": results,
		"count":   len(results),
		"total":   total,
	})
}

// GetFlows returns one category's raw flow map over a window
// GET /api/v1/institutional/flows?category=foreign&days=10
func (ctrl *InstitutionalController) GetFlows(c *gin.Context) {
	if institutionalUnavailable(c) {
		return
	}
	category, ok := categoryParam(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "10"))
	if err != nil || days < 1 || days > 60 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 60"})
		return
	}

	flow := institutional.GlobalInstitutionalService.FetchRange(category, days)
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"days":     days,
		"flows":    flow,
	})
}

// GetLayout scores one category's accumulation patterns
// GET /api/v1/institutional/layout?category=trust&days=10&min_score=60
func (ctrl *InstitutionalController) GetLayout(c *gin.Context) {
	if institutionalUnavailable(c) {
		return
	}
	category, ok := categoryParam(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "10"))
	if err != nil || days < 1 || days > 60 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 60"})
		return
	}
	minScore, err := strconv.ParseFloat(c.DefaultQuery("min_score", "60"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
		return
	}

	var names map[string]string
	if categories.GlobalCategoryTable != nil {
		names = categories.GlobalCategoryTable.Names()
	}

	flow := institutional.GlobalInstitutionalService.FetchRange(category, days)
	scores := layout.Analyze(flow, category, minScore, names)

	limit := limitParam(c, 50)
	total := len(scores)
	if limit < total {
		scores = scores[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"category":  category,
		"days":      days,
		"min_score": minScore,
		"results":   scores,
		"count":     len(scores),
		"total":     total,
	})
}

// GetLayoutConsensus intersects qualifying symbols across categories
// GET /api/v1/institutional/layout/consensus?days=10&min_score=60&min_categories=2
func (ctrl *InstitutionalController) GetLayoutConsensus(c *gin.Context) {
	if institutionalUnavailable(c) {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "10"))
	if err != nil || days < 1 || days > 60 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 60"})
		return
	}
	minScore, err := strconv.ParseFloat(c.DefaultQuery("min_score", "60"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
		return
	}
	minCategories, err := strconv.Atoi(c.DefaultQuery("min_categories", "2"))
	if err != nil || minCategories < 1 || minCategories > len(models.AllInvestorCategories) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_categories must be between 1 and 3"})
		return
	}

	var names map[string]string
	if categories.GlobalCategoryTable != nil {
		names = categories.GlobalCategoryTable.Names()
	}

	byCategory := make(map[models.InvestorCategory][]models.LayoutScore, len(models.AllInvestorCategories))
	for _, category := range models.AllInvestorCategories {
		flow := institutional.GlobalInstitutionalService.FetchRange(category, days)
		byCategory[category] = layout.Analyze(flow, category, minScore, names)
	}

	codes := layout.Intersect(byCategory, minCategories)
	c.JSON(http.StatusOK, gin.H{
		"days":           days,
		"min_score":      minScore,
		"min_categories": minCategories,
		"codes":          codes,
		"count":          len(codes),
		"by_category":    byCategory,
	})
}
