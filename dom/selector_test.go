package dom

import (
	"testing"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/testify/require"
)

func TestSelectorAnnotations(t *testing.T) {
	assert := require.New(t)

	atype, inner, err := Selector(`#intro .title`).GetAnnotation()
	assert.NoError(err)
	assert.Equal(`css`, atype)
	assert.Equal(`#intro .title`, inner)

	atype, inner, err = Selector(`@xpath[//section[1]]`).GetAnnotation()
	assert.NoError(err)
	assert.Equal(`xpath`, atype)
	assert.Equal(`//section[1]`, inner)

	atype, inner, err = Selector(`@[Contact Us]`).GetAnnotation()
	assert.NoError(err)
	assert.Equal(`text`, atype)
	assert.Equal(`Contact Us`, inner)

	_, _, err = Selector(`@regex[.*]`).GetAnnotation()
	assert.Error(err)

	assert.True(Selector(``).IsNone())
	assert.True(Selector(`none`).IsNone())
	assert.False(Selector(`#home`).IsNone())
}

func TestSelectorFragment(t *testing.T) {
	assert := require.New(t)

	assert.Equal(`#about`, Selector(`#about`).Fragment())
	assert.Equal(``, Selector(`#about .title`).Fragment())
	assert.Equal(``, Selector(`.section`).Fragment())
	assert.Equal(``, Selector(`#`).Fragment())
}

func TestDimensionsRoundTrip(t *testing.T) {
	assert := require.New(t)

	dim := DimensionsFromRect(scroll.Rect{
		Top:    10,
		Left:   20,
		Width:  300,
		Height: 40,
	})

	assert.Equal(50.0, dim.Bottom)
	assert.Equal(320.0, dim.Right)
	assert.Equal(scroll.Rect{Top: 10, Left: 20, Width: 300, Height: 40}, dim.Rect())
}
