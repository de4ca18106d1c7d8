package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/catsnap/errs"
)

func TestPartitionTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		parts   []TemplatePart
		wantErr bool
	}{
		{name: "default", parts: DefaultPartitionTemplate().Parts},
		{name: "mixed", parts: []TemplatePart{TagValue("region"), Bucket("host", 10), TimeFormat("%Y")}},
		{name: "max parts", parts: []TemplatePart{
			TagValue("a"), TagValue("b"), TagValue("c"), TagValue("d"),
			TagValue("e"), TagValue("f"), TagValue("g"), TimeFormat("%Y"),
		}},
		{name: "bucket upper bound", parts: []TemplatePart{Bucket("host", MaxBuckets-1)}},

		{name: "no parts", parts: nil, wantErr: true},
		{name: "too many parts", parts: []TemplatePart{
			TagValue("a"), TagValue("b"), TagValue("c"), TagValue("d"),
			TagValue("e"), TagValue("f"), TagValue("g"), TagValue("h"), TimeFormat("%Y"),
		}, wantErr: true},
		{name: "empty time format", parts: []TemplatePart{TimeFormat("")}, wantErr: true},
		{name: "panicking time format", parts: []TemplatePart{TimeFormat("%Y %#z")}, wantErr: true},
		{name: "empty tag", parts: []TemplatePart{TagValue("")}, wantErr: true},
		{name: "time tag", parts: []TemplatePart{TagValue("time")}, wantErr: true},
		{name: "tag containing time", parts: []TemplatePart{TagValue("uptime")}, wantErr: true},
		{name: "repeated tag", parts: []TemplatePart{TagValue("host"), Bucket("host", 4)}, wantErr: true},
		{name: "zero buckets", parts: []TemplatePart{Bucket("host", 0)}, wantErr: true},
		{name: "too many buckets", parts: []TemplatePart{Bucket("host", MaxBuckets)}, wantErr: true},
		{name: "empty bucket tag", parts: []TemplatePart{Bucket("", 4)}, wantErr: true},
		{name: "unknown kind", parts: []TemplatePart{{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPartitionTemplate(tt.parts...)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidPartitionTemplate)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPartitionTemplate_RoundTrip(t *testing.T) {
	template, err := NewPartitionTemplate(TagValue("region"), Bucket("host", 64), TimeFormat("%Y-%m-%d"))
	require.NoError(t, err)

	decoded, err := decodePartitionTemplate(template.appendTo(nil))
	require.NoError(t, err)
	require.Equal(t, template, decoded)
	require.Equal(t, "tag:region|bucket:host/64|time:%Y-%m-%d", decoded.String())
}

func TestDecodePartitionTemplate_Invalid(t *testing.T) {
	// Encoding does not validate, decoding does.
	invalid := PartitionTemplate{Parts: []TemplatePart{TagValue("time")}}

	_, err := decodePartitionTemplate(invalid.appendTo(nil))
	require.ErrorIs(t, err, errs.ErrInvalidPartitionTemplate)

	_, err = decodePartitionTemplate(nil)
	require.ErrorIs(t, err, errs.ErrInvalidPartitionTemplate)
}
