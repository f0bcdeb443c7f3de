package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pageParams struct {
	Limit  int64  `form:"limit" binding:"required,min=1,max=100"`
	Cursor string `form:"cursor"`
}

// bindPageParams validates limit (1..100) and the optional cursor. The
// cursor is the id of the first row of the page being requested, handed out
// as nextCursor by the previous page.
func bindPageParams(c *gin.Context) (int64, *primitive.ObjectID, bool) {
	var params pageParams
	if err := c.ShouldBindQuery(&params); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return 0, nil, false
	}

	if params.Cursor == "" {
		return params.Limit, nil, true
	}

	cursorID, err := primitive.ObjectIDFromHex(params.Cursor)
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid cursor")
		return 0, nil, false
	}
	return params.Limit, &cursorID, true
}

// trimPage implements the fetch-one-extra pagination contract: queries ask
// for limit+1 rows, and when the extra row comes back it is dropped from the
// page and its id becomes the cursor for the next request. The dropped row
// is returned first on the next page, so nothing is skipped or duplicated.
func trimPage[T any](items []T, limit int64, id func(T) primitive.ObjectID) ([]T, string) {
	if int64(len(items)) <= limit {
		return items, ""
	}
	return items[:limit], id(items[limit]).Hex()
}
