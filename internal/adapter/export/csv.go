package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"io"
	"math"
	"strconv"

	"github.com/voltgrid/voltgrid/internal/domain"
)

// header is the fixed column set of a transaction export.
var header = []string{
	"id",
	"chargingStation",
	"connector",
	"userID",
	"user",
	"startDate",
	"startTime",
	"endDate",
	"endTime",
	"totalConsumptionkWh",
	"totalDurationMins",
	"totalInactivityMins",
	"price",
	"priceUnit",
}

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04:05"
)

// UserResolver maps a user id to its display name. Exports receive the
// user snapshots separately, the transaction entity never carries them.
type UserResolver func(userID string) string

// CSVWriter renders transactions as fixed-column CSV rows.
type CSVWriter struct {
	w        *csv.Writer
	resolver UserResolver
}

// NewCSVWriter wraps an output stream. The resolver may be nil when no
// user display names are available.
func NewCSVWriter(out io.Writer, resolver UserResolver) *CSVWriter {
	return &CSVWriter{
		w:        csv.NewWriter(out),
		resolver: resolver,
	}
}

// Write renders the header and one row per transaction, in input order.
func (c *CSVWriter) Write(txs []domain.Transaction) error {
	if err := c.w.Write(header); err != nil {
		return err
	}
	for i := range txs {
		if err := c.w.Write(Row(&txs[i], c.resolver)); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

// Row renders one transaction. A transaction without a stop record
// yields empty cells for every stop-derived column. The user id is
// one-way hashed: a privacy measure for report sharing, not a security
// boundary.
func Row(tx *domain.Transaction, resolver UserResolver) []string {
	userName := ""
	if resolver != nil && tx.UserID != "" {
		userName = resolver(tx.UserID)
	}
	row := []string{
		strconv.Itoa(tx.ID),
		tx.ChargeBoxID,
		strconv.Itoa(tx.ConnectorID),
		hashUserID(tx.UserID),
		userName,
		tx.Timestamp.Format(dateFormat),
		tx.Timestamp.Format(timeFormat),
	}
	if tx.Stop == nil {
		return append(row, "", "", "", "", "", "", "")
	}
	return append(row,
		tx.Stop.Timestamp.Format(dateFormat),
		tx.Stop.Timestamp.Format(timeFormat),
		strconv.FormatInt(int64(math.Round(float64(tx.Stop.TotalConsumptionWh)/1000)), 10),
		strconv.FormatInt(int64(math.Round(float64(tx.Stop.TotalDurationSecs)/60)), 10),
		strconv.FormatInt(int64(math.Round(float64(tx.Stop.TotalInactivitySecs)/60)), 10),
		strconv.FormatFloat(round2(tx.Stop.Price), 'f', 2, 64),
		tx.Stop.PriceUnit,
	)
}

func hashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:16]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
