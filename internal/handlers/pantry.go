package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"kitchensync/internal/kitchen"
	"kitchensync/internal/models"

	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 * 1024 * 1024

func handlePantry(c *gin.Context) {
	category := c.Query("category")
	if category != "" && !models.IngredientCategory(category).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	var body gin.H
	err := getKitchen(c).View(func(st *kitchen.State) error {
		items := st.Pantry.Items()
		if category != "" {
			items = st.Pantry.ByCategory(models.IngredientCategory(category))
		}

		grouped := make(map[models.IngredientCategory][]models.Ingredient, len(models.IngredientCategories))
		for _, cat := range models.IngredientCategories {
			grouped[cat] = st.Pantry.ByCategory(cat)
		}

		body = gin.H{
			"items":      items,
			"byCategory": grouped,
			"categories": models.IngredientCategories,
		}
		return nil
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, body)
}

func handleAddIngredient(c *gin.Context) {
	var req models.NewIngredient
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient"})
		return
	}

	ctx, notices := noticeContext(c)
	ing, err := getKitchen(c).AddIngredient(ctx, req)
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusCreated, gin.H{"ingredient": ing}, notices)
}

func handleUpdateIngredient(c *gin.Context) {
	var req models.IngredientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient update"})
		return
	}

	ctx, notices := noticeContext(c)
	ing, found, err := getKitchen(c).UpdateIngredient(ctx, c.Param("id"), req)
	if err != nil {
		respondError(c, err, notices)
		return
	}
	if !found {
		respondNotFound(c, "Ingredient", notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"ingredient": ing}, notices)
}

func handleRemoveIngredient(c *gin.Context) {
	ctx, notices := noticeContext(c)
	if _, err := getKitchen(c).RemoveIngredient(ctx, c.Param("id")); err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true}, notices)
}

func handleClearPantry(c *gin.Context) {
	ctx, notices := noticeContext(c)
	if err := getKitchen(c).ClearPantry(ctx); err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"success": true}, notices)
}

func handleExportPantry(c *gin.Context) {
	var buf bytes.Buffer
	if err := getKitchen(c).ExportPantry(&buf); err != nil {
		respondError(c, err, nil)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=pantry.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func handleImportPantry(c *gin.Context) {
	file, header, err := c.Request.FormFile("csvFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	data, err := readCSVUpload(file, header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, notices := noticeContext(c)
	n, err := getKitchen(c).ImportPantry(ctx, bytes.NewReader(data))
	if err != nil {
		respondError(c, err, notices)
		return
	}

	respond(c, http.StatusOK, gin.H{"imported": n}, notices)
}

// readCSVUpload checks size, extension and content type of an uploaded
// pantry file and returns its contents.
func readCSVUpload(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	if header.Size > maxImportSize {
		return nil, fmt.Errorf("file too large")
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return nil, fmt.Errorf("invalid file extension")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read file")
	}
	if len(data) > maxImportSize {
		return nil, fmt.Errorf("file too large")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "text/") {
		return nil, fmt.Errorf("invalid file type: %s", contentType)
	}

	return data, nil
}
