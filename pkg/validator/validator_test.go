package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID    string  `json:"id" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Link  string  `json:"image_link,omitempty" validate:"omitempty,url"`
}

type testBatch struct {
	Items []testItem `json:"products" validate:"required,min=1,max=3,dive"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(testItem{ID: "1", Price: 4.5, Link: "https://example.com/a.png"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(testItem{Price: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["id"])
	assert.Equal(t, "must be greater than or equal to 0", fields["price"])
}

func TestValidate_InvalidURL(t *testing.T) {
	err := Validate(testItem{ID: "1", Link: "not a url"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid URL", valErr.Fields()["image_link"])
}

func TestValidate_DiveReportsIndexedPath(t *testing.T) {
	err := Validate(testBatch{Items: []testItem{{ID: "1"}, {}}})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{"products[1].id": "is required"}, valErr.Fields())
	assert.Equal(t, "field 'products[1].id' is required", valErr.Error())
}

func TestValidate_SliceBounds(t *testing.T) {
	tests := []struct {
		name  string
		batch testBatch
		want  string
	}{
		{name: "empty", batch: testBatch{Items: []testItem{}}, want: "must have at least 1 items"},
		{name: "too many", batch: testBatch{Items: make([]testItem, 4)}, want: "must have at most 3 items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var valErr *ValidationError
			require.ErrorAs(t, Validate(tt.batch), &valErr)
			assert.Equal(t, tt.want, valErr.Fields()["products"])
		})
	}
}

func TestValidate_NilSliceIsRequired(t *testing.T) {
	var valErr *ValidationError
	require.ErrorAs(t, Validate(testBatch{}), &valErr)
	assert.Equal(t, "is required", valErr.Fields()["products"])
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)

	var valErr *ValidationError
	assert.NotErrorAs(t, err, &valErr)
}
