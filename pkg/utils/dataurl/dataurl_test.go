package dataurl_test

import (
	"testing"

	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/gt"
)

func TestDecode(t *testing.T) {
	data, mimeType, err := dataurl.Decode("data:image/jpeg;base64,aGVsbG8=")
	gt.NoError(t, err)
	gt.Equal(t, mimeType, "image/jpeg")
	gt.Equal(t, string(data), "hello")
}

func TestEncode(t *testing.T) {
	s := dataurl.Encode("image/png", []byte("hello"))
	gt.Equal(t, s, "data:image/png;base64,aGVsbG8=")
	gt.True(t, dataurl.IsDataURL(s))
}

func TestDecodeInvalid(t *testing.T) {
	testCases := map[string]string{
		"not a data url": "https://example.com/a.jpg",
		"no marker":      "data:image/png,hello",
		"bad payload":    "data:image/png;base64,!!!",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := dataurl.Decode(input)
			gt.Error(t, err)
		})
	}

	gt.False(t, dataurl.IsDataURL("https://picsum.photos/seed/1/1280/720"))
}
