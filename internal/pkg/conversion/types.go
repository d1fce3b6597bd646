package conversion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JobType identifies one of the supported document operations
type JobType string

const (
	JobTypeConvert   JobType = "convert"
	JobTypeMerge     JobType = "merge"
	JobTypeSplit     JobType = "split"
	JobTypeCompress  JobType = "compress"
	JobTypeRotate    JobType = "rotate"
	JobTypeExtract   JobType = "extract"
	JobTypeUnlock    JobType = "unlock"
	JobTypeProtect   JobType = "protect"
	JobTypeWatermark JobType = "watermark"
	JobTypeOCR       JobType = "ocr"
	JobTypeEdit      JobType = "edit"
	JobTypeSign      JobType = "sign"
	JobTypeAnnotate  JobType = "annotate"
)

var jobTypes = map[JobType]bool{
	JobTypeConvert:   true,
	JobTypeMerge:     true,
	JobTypeSplit:     true,
	JobTypeCompress:  true,
	JobTypeRotate:    true,
	JobTypeExtract:   true,
	JobTypeUnlock:    true,
	JobTypeProtect:   true,
	JobTypeWatermark: true,
	JobTypeOCR:       true,
	JobTypeEdit:      true,
	JobTypeSign:      true,
	JobTypeAnnotate:  true,
}

// ParseJobType validates a client-supplied job type token
func ParseJobType(s string) (JobType, error) {
	t := JobType(strings.ToLower(strings.TrimSpace(s)))
	if !jobTypes[t] {
		return "", fmt.Errorf("unknown job type: %q", s)
	}
	return t, nil
}

// IsAIJobType reports whether the job type consumes AI credits
func IsAIJobType(t JobType) bool {
	return t == JobTypeOCR
}

// MinInputDocuments returns the minimum number of input documents a job type
// requires. Only merge takes more than one.
func MinInputDocuments(t JobType) int {
	if t == JobTypeMerge {
		return 2
	}
	return 1
}

// Options is the per-type parameter payload of a job request. Each job type
// has its own concrete options struct; DecodeOptions picks the right one from
// the type tag so unknown fields and type confusion fail at the boundary.
type Options interface {
	Validate() error
}

// ConvertOptions has no parameters; the target format travels separately as
// the job's output format.
type ConvertOptions struct{}

func (o ConvertOptions) Validate() error { return nil }

type MergeOptions struct{}

func (o MergeOptions) Validate() error { return nil }

// SplitOptions selects which page ranges become separate output files
type SplitOptions struct {
	Ranges []PageRange `json:"ranges"`
}

// PageRange is an inclusive 1-based page interval
type PageRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r PageRange) validate() error {
	if r.From < 1 {
		return fmt.Errorf("page range start must be >= 1, got %d", r.From)
	}
	if r.To < r.From {
		return fmt.Errorf("page range end %d is before start %d", r.To, r.From)
	}
	return nil
}

func (o SplitOptions) Validate() error {
	if len(o.Ranges) == 0 {
		return errors.New("split requires at least one page range")
	}
	for _, r := range o.Ranges {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

type CompressOptions struct {
	Quality int `json:"quality"`
}

func (o CompressOptions) Validate() error {
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", o.Quality)
	}
	return nil
}

type RotateOptions struct {
	Angle int `json:"angle"`
}

func (o RotateOptions) Validate() error {
	if o.Angle%90 != 0 || o.Angle == 0 {
		return fmt.Errorf("angle must be a non-zero multiple of 90, got %d", o.Angle)
	}
	return nil
}

// ExtractOptions selects pages to pull into a new document
type ExtractOptions struct {
	Pages []int `json:"pages"`
}

func (o ExtractOptions) Validate() error {
	if len(o.Pages) == 0 {
		return errors.New("extract requires at least one page")
	}
	for _, p := range o.Pages {
		if p < 1 {
			return fmt.Errorf("page numbers are 1-based, got %d", p)
		}
	}
	return nil
}

type UnlockOptions struct {
	Password string `json:"password"`
}

func (o UnlockOptions) Validate() error {
	if o.Password == "" {
		return errors.New("unlock requires the document password")
	}
	return nil
}

type ProtectOptions struct {
	Password string `json:"password"`
}

func (o ProtectOptions) Validate() error {
	if len(o.Password) < 4 {
		return errors.New("protect requires a password of at least 4 characters")
	}
	return nil
}

type WatermarkPosition string

const (
	WatermarkCenter      WatermarkPosition = "center"
	WatermarkTopLeft     WatermarkPosition = "top-left"
	WatermarkTopRight    WatermarkPosition = "top-right"
	WatermarkBottomLeft  WatermarkPosition = "bottom-left"
	WatermarkBottomRight WatermarkPosition = "bottom-right"
)

type WatermarkOptions struct {
	Text     string            `json:"text"`
	Position WatermarkPosition `json:"position"`
}

func (o WatermarkOptions) Validate() error {
	if strings.TrimSpace(o.Text) == "" {
		return errors.New("watermark requires text")
	}
	switch o.Position {
	case WatermarkCenter, WatermarkTopLeft, WatermarkTopRight, WatermarkBottomLeft, WatermarkBottomRight:
		return nil
	case "":
		return errors.New("watermark requires a position")
	default:
		return fmt.Errorf("unknown watermark position: %q", o.Position)
	}
}

type OCROptions struct {
	Language string `json:"language"`
}

func (o OCROptions) Validate() error {
	if o.Language == "" {
		return errors.New("ocr requires a language code")
	}
	return nil
}

// EditOptions carries an opaque edit script interpreted by the processing
// backend. The core only checks it is present.
type EditOptions struct {
	Operations json.RawMessage `json:"operations"`
}

func (o EditOptions) Validate() error {
	if len(o.Operations) == 0 {
		return errors.New("edit requires an operations payload")
	}
	return nil
}

type SignOptions struct {
	SignatureImage string `json:"signature_image"` // base64 PNG
	Page           int    `json:"page"`
}

func (o SignOptions) Validate() error {
	if o.SignatureImage == "" {
		return errors.New("sign requires a signature image")
	}
	if o.Page < 1 {
		return errors.New("sign requires a 1-based page number")
	}
	return nil
}

type AnnotateOptions struct {
	Annotations json.RawMessage `json:"annotations"`
}

func (o AnnotateOptions) Validate() error {
	if len(o.Annotations) == 0 {
		return errors.New("annotate requires an annotations payload")
	}
	return nil
}

// DecodeOptions unmarshals raw options into the struct for the given job
// type and validates it. A nil/empty payload is allowed only for types with
// no required parameters.
func DecodeOptions(t JobType, raw json.RawMessage) (Options, error) {
	decode := func(into Options) (Options, error) {
		if len(raw) > 0 {
			dec := json.NewDecoder(strings.NewReader(string(raw)))
			dec.DisallowUnknownFields()
			if err := dec.Decode(into); err != nil {
				return nil, fmt.Errorf("invalid options for %s: %w", t, err)
			}
		}
		return into, nil
	}

	var opts Options
	var err error
	switch t {
	case JobTypeConvert:
		opts, err = decode(&ConvertOptions{})
	case JobTypeMerge:
		opts, err = decode(&MergeOptions{})
	case JobTypeSplit:
		opts, err = decode(&SplitOptions{})
	case JobTypeCompress:
		opts, err = decode(&CompressOptions{})
	case JobTypeRotate:
		opts, err = decode(&RotateOptions{})
	case JobTypeExtract:
		opts, err = decode(&ExtractOptions{})
	case JobTypeUnlock:
		opts, err = decode(&UnlockOptions{})
	case JobTypeProtect:
		opts, err = decode(&ProtectOptions{})
	case JobTypeWatermark:
		opts, err = decode(&WatermarkOptions{})
	case JobTypeOCR:
		opts, err = decode(&OCROptions{})
	case JobTypeEdit:
		opts, err = decode(&EditOptions{})
	case JobTypeSign:
		opts, err = decode(&SignOptions{})
	case JobTypeAnnotate:
		opts, err = decode(&AnnotateOptions{})
	default:
		return nil, fmt.Errorf("unknown job type: %q", t)
	}
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
