package catalog

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/catsnap/errs"
	"github.com/arloliu/catsnap/internal/wire"
)

const (
	// MaxTemplateParts is the maximum number of parts a partition template may have.
	MaxTemplateParts = 8

	// MinBuckets and MaxBuckets bound the bucket count of a bucket part: [MinBuckets, MaxBuckets).
	MinBuckets = 1
	MaxBuckets = 100_000

	// reservedTagName may not appear in tag names; the time column is covered
	// by time format parts.
	reservedTagName = "time"

	// DefaultTimeFormat partitions by day.
	DefaultTimeFormat = "%Y-%m-%d"
)

const (
	templatePartsField protowire.Number = 1

	templatePartTagValueField   protowire.Number = 1
	templatePartTimeFormatField protowire.Number = 2
	templatePartBucketField     protowire.Number = 3

	bucketTagNameField    protowire.Number = 1
	bucketNumBucketsField protowire.Number = 2
)

// TemplatePartKind identifies the variant of a TemplatePart.
type TemplatePartKind uint8

const (
	TemplatePartTagValue TemplatePartKind = iota + 1
	TemplatePartTimeFormat
	TemplatePartBucket
)

func (k TemplatePartKind) String() string {
	switch k {
	case TemplatePartTagValue:
		return "tag_value"
	case TemplatePartTimeFormat:
		return "time_format"
	case TemplatePartBucket:
		return "bucket"
	default:
		return "unknown"
	}
}

// TemplatePart is one component of a partition key.
type TemplatePart struct {
	Kind       TemplatePartKind
	TagName    string // tag value and bucket parts
	TimeFormat string // time format parts (strftime)
	NumBuckets uint32 // bucket parts
}

// TagValue returns a part taking the value of tag name.
func TagValue(name string) TemplatePart {
	return TemplatePart{Kind: TemplatePartTagValue, TagName: name}
}

// TimeFormat returns a part formatting the row timestamp with a strftime format.
func TimeFormat(format string) TemplatePart {
	return TemplatePart{Kind: TemplatePartTimeFormat, TimeFormat: format}
}

// Bucket returns a part hashing the value of tag name into numBuckets buckets.
func Bucket(name string, numBuckets uint32) TemplatePart {
	return TemplatePart{Kind: TemplatePartBucket, TagName: name, NumBuckets: numBuckets}
}

func (p TemplatePart) String() string {
	switch p.Kind {
	case TemplatePartTagValue:
		return "tag:" + p.TagName
	case TemplatePartTimeFormat:
		return "time:" + p.TimeFormat
	case TemplatePartBucket:
		return fmt.Sprintf("bucket:%s/%d", p.TagName, p.NumBuckets)
	default:
		return "unknown"
	}
}

// PartitionTemplate describes how partition keys are derived from rows.
type PartitionTemplate struct {
	Parts []TemplatePart
}

// DefaultPartitionTemplate partitions by day of the time column.
func DefaultPartitionTemplate() PartitionTemplate {
	return PartitionTemplate{Parts: []TemplatePart{TimeFormat(DefaultTimeFormat)}}
}

// NewPartitionTemplate returns a validated template built from parts.
func NewPartitionTemplate(parts ...TemplatePart) (PartitionTemplate, error) {
	t := PartitionTemplate{Parts: parts}
	if err := t.Validate(); err != nil {
		return PartitionTemplate{}, err
	}

	return t, nil
}

// Validate checks the template against the partitioning rules:
//   - between 1 and MaxTemplateParts parts
//   - time formats are non-empty and do not use %#z
//   - tag names are non-empty, do not contain "time" and are not repeated
//   - bucket counts are within [MinBuckets, MaxBuckets)
func (t PartitionTemplate) Validate() error {
	if len(t.Parts) == 0 {
		return fmt.Errorf("%w: template has no parts", errs.ErrInvalidPartitionTemplate)
	}
	if len(t.Parts) > MaxTemplateParts {
		return fmt.Errorf("%w: %d parts, at most %d allowed",
			errs.ErrInvalidPartitionTemplate, len(t.Parts), MaxTemplateParts)
	}

	seen := make(map[string]struct{}, len(t.Parts))
	for i, p := range t.Parts {
		switch p.Kind {
		case TemplatePartTimeFormat:
			if p.TimeFormat == "" {
				return fmt.Errorf("%w: part %d has an empty time format", errs.ErrInvalidPartitionTemplate, i)
			}
			if strings.Contains(p.TimeFormat, "%#z") {
				return fmt.Errorf("%w: part %d: %%#z cannot be used", errs.ErrInvalidPartitionTemplate, i)
			}
		case TemplatePartTagValue, TemplatePartBucket:
			if err := validateTagName(i, p.TagName, seen); err != nil {
				return err
			}
			if p.Kind == TemplatePartBucket && (p.NumBuckets < MinBuckets || p.NumBuckets >= MaxBuckets) {
				return fmt.Errorf("%w: part %d: bucket count %d outside [%d, %d)",
					errs.ErrInvalidPartitionTemplate, i, p.NumBuckets, MinBuckets, MaxBuckets)
			}
		default:
			return fmt.Errorf("%w: part %d has unknown kind %d", errs.ErrInvalidPartitionTemplate, i, p.Kind)
		}
	}

	return nil
}

func validateTagName(i int, name string, seen map[string]struct{}) error {
	if name == "" {
		return fmt.Errorf("%w: part %d has an empty tag name", errs.ErrInvalidPartitionTemplate, i)
	}
	if strings.Contains(name, reservedTagName) {
		return fmt.Errorf("%w: part %d: tag name %q contains %q",
			errs.ErrInvalidPartitionTemplate, i, name, reservedTagName)
	}
	if _, ok := seen[name]; ok {
		return fmt.Errorf("%w: part %d repeats tag name %q", errs.ErrInvalidPartitionTemplate, i, name)
	}
	seen[name] = struct{}{}

	return nil
}

// String renders the template as a "|" separated list of parts.
func (t PartitionTemplate) String() string {
	parts := make([]string, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.String()
	}

	return strings.Join(parts, "|")
}

func (t PartitionTemplate) appendTo(b []byte) []byte {
	for _, p := range t.Parts {
		var part []byte
		switch p.Kind {
		case TemplatePartTagValue:
			part = wire.AppendMessage(part, templatePartTagValueField, []byte(p.TagName))
		case TemplatePartTimeFormat:
			part = wire.AppendMessage(part, templatePartTimeFormatField, []byte(p.TimeFormat))
		case TemplatePartBucket:
			var bucket []byte
			bucket = wire.AppendString(bucket, bucketTagNameField, p.TagName)
			bucket = wire.AppendUint64(bucket, bucketNumBucketsField, uint64(p.NumBuckets))
			part = wire.AppendMessage(part, templatePartBucketField, bucket)
		}
		b = wire.AppendMessage(b, templatePartsField, part)
	}

	return b
}

// decodePartitionTemplate decodes and validates a template message.
func decodePartitionTemplate(b []byte) (PartitionTemplate, error) {
	var t PartitionTemplate

	d := wire.NewDecoder(b)
	for d.Next() {
		if d.Number() != templatePartsField {
			continue
		}

		msg, err := d.Bytes()
		if err != nil {
			return PartitionTemplate{}, fmt.Errorf("partition template: %w", err)
		}
		part, err := decodeTemplatePart(msg)
		if err != nil {
			return PartitionTemplate{}, fmt.Errorf("partition template part %d: %w", len(t.Parts), err)
		}
		t.Parts = append(t.Parts, part)
	}
	if err := d.Err(); err != nil {
		return PartitionTemplate{}, fmt.Errorf("partition template: %w", err)
	}

	if err := t.Validate(); err != nil {
		return PartitionTemplate{}, err
	}

	return t, nil
}

func decodeTemplatePart(b []byte) (TemplatePart, error) {
	var p TemplatePart

	d := wire.NewDecoder(b)
	for d.Next() {
		var (
			v   []byte
			err error
		)
		switch d.Number() {
		case templatePartTagValueField:
			if v, err = d.Bytes(); err == nil {
				p = TagValue(string(v))
			}
		case templatePartTimeFormatField:
			if v, err = d.Bytes(); err == nil {
				p = TimeFormat(string(v))
			}
		case templatePartBucketField:
			if v, err = d.Bytes(); err == nil {
				p, err = decodeBucket(v)
			}
		}
		if err != nil {
			return TemplatePart{}, err
		}
	}

	return p, d.Err()
}

func decodeBucket(b []byte) (TemplatePart, error) {
	p := TemplatePart{Kind: TemplatePartBucket}

	d := wire.NewDecoder(b)
	for d.Next() {
		var err error
		switch d.Number() {
		case bucketTagNameField:
			var v []byte
			if v, err = d.Bytes(); err == nil {
				p.TagName = string(v)
			}
		case bucketNumBucketsField:
			p.NumBuckets, err = d.Uint32()
		}
		if err != nil {
			return TemplatePart{}, err
		}
	}

	return p, d.Err()
}
