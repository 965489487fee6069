// Package export writes labeled accounts as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"tweetgraph/hunter/internal/db"
)

// Header is the first CSV row.
var Header = []string{"ID", "ScreenName", "DisplayName", "Description", "CreationDate", "#Follower", "#Following", "Weight"}

// WriteCSV writes a header and one row per account, in the given order.
func WriteCSV(w io.Writer, rows []db.LabeledAccount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ExternalID, 10),
			r.ScreenName,
			r.DisplayName,
			r.Description,
			r.CreatedAt.Format("2006-01-02"),
			strconv.Itoa(r.FollowerCount),
			strconv.Itoa(r.FriendCount),
			strconv.FormatFloat(r.Weight, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
