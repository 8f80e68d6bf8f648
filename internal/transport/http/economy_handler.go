package handlers

import (
	"net/http"

	"economy-service/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/economy/register
func (h *EconomyHandler) Register(c *gin.Context) {
	uid := c.GetString("userId")

	var req usecase.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.Register(c, uid, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/economy/status
func (h *EconomyHandler) Status(c *gin.Context) {
	uid := c.GetString("userId")

	res, err := h.economy.SettleAndGetStatus(c, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/autopilot/toggle
func (h *EconomyHandler) ToggleAutopilot(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		On bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.ToggleAccrual(c, uid, req.On)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/autopilot/claim
func (h *EconomyHandler) ClaimAutopilot(c *gin.Context) {
	uid := c.GetString("userId")

	res, err := h.economy.ClaimAccrual(c, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/energy/spend
func (h *EconomyHandler) SpendEnergy(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.SpendEnergy(c, uid, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/energy/ad-refill
func (h *EconomyHandler) AdEnergyRefill(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		AdToken string `json:"adToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.GrantEnergy(c, uid, req.AdToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/items/purchase
func (h *EconomyHandler) PurchaseItem(c *gin.Context) {
	uid := c.GetString("userId")

	var req usecase.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.PurchaseItem(c, uid, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/items/equip
func (h *EconomyHandler) EquipItem(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.EquipItem(c, uid, req.ItemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/items/unequip
func (h *EconomyHandler) UnequipItem(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.UnequipItem(c, uid, req.ItemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/elite-pass/purchase
func (h *EconomyHandler) PurchaseElitePass(c *gin.Context) {
	uid := c.GetString("userId")

	var req struct {
		PurchaseID string `json:"purchaseId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.PurchaseElitePass(c, uid, req.PurchaseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/streak/claim
func (h *EconomyHandler) ClaimStreak(c *gin.Context) {
	uid := c.GetString("userId")

	res, err := h.economy.ClaimStreak(c, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/economy/session/submit
func (h *EconomyHandler) SubmitSession(c *gin.Context) {
	uid := c.GetString("userId")

	var req usecase.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.economy.SubmitSessionResult(c, uid, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/leaderboard
func (h *EconomyHandler) Leaderboard(c *gin.Context) {
	uid := c.GetString("userId")

	res, err := h.economy.Leaderboard(c, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
