package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tweetgraph/hunter/internal/db"
)

func TestWriteCSV(t *testing.T) {
	rows := []db.LabeledAccount{
		{
			Account: db.Account{
				ExternalID:    1244246322430259200,
				ScreenName:    "user_1",
				DisplayName:   "User, One",
				Description:   "line one\n\"quoted\"",
				CreatedAt:     time.Date(2020, 3, 29, 8, 11, 25, 0, time.UTC),
				FollowerCount: 56,
				FriendCount:   782,
			},
			Weight: 2.5,
		},
		{
			Account: db.Account{ExternalID: 7, ScreenName: "seven", CreatedAt: time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC)},
			Weight:  1,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	got, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		Header,
		{"1244246322430259200", "user_1", "User, One", "line one\n\"quoted\"", "2020-03-29", "56", "782", "2.50"},
		{"7", "seven", "", "", "2012-01-02", "0", "0", "1.00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "ID,ScreenName,DisplayName,Description,CreationDate,#Follower,#Following,Weight\n" {
		t.Errorf("unexpected output %q", got)
	}
}
