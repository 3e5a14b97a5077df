package handlers

import (
	"net/http"

	"kitchensync/internal/kitchen"
	"kitchensync/internal/models"

	"github.com/gin-gonic/gin"
)

func handleShoppingList(c *gin.Context) {
	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		body = gin.H{
			"items":     st.Shopping.Items(),
			"unchecked": st.Shopping.Unchecked(),
			"checked":   st.Shopping.Checked(),
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleAddShoppingItem(c *gin.Context) {
	var req models.NewIngredient
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item"})
		return
	}
	if req.Category == "" {
		req.Category = models.CategoryOther
	}

	ctx, notices := noticeContext(c)
	item, err := getKitchen(c).AddShoppingItem(ctx, req)
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusCreated, gin.H{"item": item}, notices)
}

func handleToggleShoppingItem(c *gin.Context) {
	ctx, notices := noticeContext(c)
	item, found, err := getKitchen(c).ToggleShoppingItem(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Item", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"item": item}, notices)
}

func handleUpdateShoppingItem(c *gin.Context) {
	var req models.ShoppingItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item update"})
		return
	}

	ctx, notices := noticeContext(c)
	item, found, err := getKitchen(c).UpdateShoppingItem(ctx, c.Param("id"), req)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Item", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"item": item}, notices)
}

func handleRemoveShoppingItem(c *gin.Context) {
	ctx, notices := noticeContext(c)
	if _, err := getKitchen(c).RemoveShoppingItem(ctx, c.Param("id")); err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true}, notices)
}

func handleClearShoppingList(c *gin.Context) {
	ctx, notices := noticeContext(c)
	if err := getKitchen(c).ClearShoppingList(ctx); err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true}, notices)
}

func handleClearCheckedItems(c *gin.Context) {
	ctx, notices := noticeContext(c)
	n, err := getKitchen(c).ClearCheckedItems(ctx)
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"removed": n}, notices)
}
