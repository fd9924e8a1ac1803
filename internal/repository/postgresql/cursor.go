package postgresql

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// pageCursor is the keyset position after the last row of a page.
type pageCursor struct {
	WorkDate string `json:"d"`
	ID       string `json:"i"`
}

func encodeCursor(c pageCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (pageCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return pageCursor{}, fmt.Errorf("%w: %v", attendance.ErrInvalidCursor, err)
	}
	var c pageCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.WorkDate == "" || c.ID == "" {
		return pageCursor{}, attendance.ErrInvalidCursor
	}
	return c, nil
}
