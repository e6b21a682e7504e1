package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-finance-backend/internal/model"
)

var testUserID = uuid.MustParse("6f1c2a9e-3b7d-4c5e-9a8f-1d2e3f4a5b6c")

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    Sort
		wantErr bool
	}{
		{in: "", want: DefaultSort},
		{in: "-date", want: Sort{Field: "date", Desc: true}},
		{in: "amount", want: Sort{Field: "amount"}},
		{in: "-createdAt", want: Sort{Field: "createdAt", Desc: true}},
		{in: "note", wantErr: true},
		{in: "-user_id; DROP TABLE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSort(tt.in)
			if tt.wantErr {
				assert.True(t, model.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderByClause(t *testing.T) {
	assert.Equal(t, "t.date DESC, t.id DESC", orderBy(Sort{Field: "date", Desc: true}))
	assert.Equal(t, "t.amount ASC, t.id ASC", orderBy(Sort{Field: "amount"}))
	assert.Equal(t, "t.created_at DESC, t.id DESC", orderBy(Sort{Field: "createdAt", Desc: true}))
	assert.Equal(t, "t.date DESC, t.id DESC", orderBy(Sort{Field: "bogus"}))
}

func TestTransactionWhere(t *testing.T) {
	f := TransactionFilter{Type: model.TransactionExpense}
	where, args := transactionWhere(testUserID, f)
	assert.Equal(t, "t.user_id = $1 AND t.type = $2", where)
	assert.Len(t, args, 2)
}
