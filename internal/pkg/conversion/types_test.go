package conversion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobType(t *testing.T) {
	for _, s := range []string{"convert", "merge", "split", "compress", "rotate", "extract", "unlock", "protect", "watermark", "ocr", "edit", "sign", "annotate"} {
		got, err := ParseJobType(s)
		require.NoError(t, err, s)
		assert.Equal(t, JobType(s), got)
	}

	if _, err := ParseJobType("OCR"); err != nil {
		t.Fatal("job type parsing should be case-insensitive")
	}
	if _, err := ParseJobType("shred"); err == nil {
		t.Fatal("unknown job type must be rejected")
	}
}

func TestDecodeOptionsPerType(t *testing.T) {
	tests := []struct {
		name    string
		jobType JobType
		raw     string
		wantErr bool
	}{
		{name: "convert with no options", jobType: JobTypeConvert, raw: ""},
		{name: "merge with no options", jobType: JobTypeMerge, raw: ""},

		{name: "split valid ranges", jobType: JobTypeSplit, raw: `{"ranges":[{"from":1,"to":3},{"from":5,"to":5}]}`},
		{name: "split without ranges", jobType: JobTypeSplit, raw: `{"ranges":[]}`, wantErr: true},
		{name: "split inverted range", jobType: JobTypeSplit, raw: `{"ranges":[{"from":4,"to":2}]}`, wantErr: true},
		{name: "split zero-based range", jobType: JobTypeSplit, raw: `{"ranges":[{"from":0,"to":2}]}`, wantErr: true},

		{name: "compress quality in range", jobType: JobTypeCompress, raw: `{"quality":80}`},
		{name: "compress quality zero", jobType: JobTypeCompress, raw: `{"quality":0}`, wantErr: true},
		{name: "compress quality too high", jobType: JobTypeCompress, raw: `{"quality":101}`, wantErr: true},

		{name: "rotate by 90", jobType: JobTypeRotate, raw: `{"angle":90}`},
		{name: "rotate by -270", jobType: JobTypeRotate, raw: `{"angle":-270}`},
		{name: "rotate by 45", jobType: JobTypeRotate, raw: `{"angle":45}`, wantErr: true},
		{name: "rotate by zero", jobType: JobTypeRotate, raw: `{"angle":0}`, wantErr: true},

		{name: "extract pages", jobType: JobTypeExtract, raw: `{"pages":[1,3,5]}`},
		{name: "extract no pages", jobType: JobTypeExtract, raw: `{"pages":[]}`, wantErr: true},

		{name: "unlock with password", jobType: JobTypeUnlock, raw: `{"password":"secret"}`},
		{name: "unlock without password", jobType: JobTypeUnlock, raw: `{}`, wantErr: true},

		{name: "protect short password", jobType: JobTypeProtect, raw: `{"password":"abc"}`, wantErr: true},
		{name: "protect valid password", jobType: JobTypeProtect, raw: `{"password":"abcd"}`},

		{name: "watermark centered", jobType: JobTypeWatermark, raw: `{"text":"DRAFT","position":"center"}`},
		{name: "watermark bad position", jobType: JobTypeWatermark, raw: `{"text":"DRAFT","position":"middle"}`, wantErr: true},
		{name: "watermark empty text", jobType: JobTypeWatermark, raw: `{"text":"  ","position":"center"}`, wantErr: true},

		{name: "ocr with language", jobType: JobTypeOCR, raw: `{"language":"deu"}`},
		{name: "ocr without language", jobType: JobTypeOCR, raw: `{}`, wantErr: true},

		{name: "sign valid", jobType: JobTypeSign, raw: `{"signature_image":"aGk=","page":1}`},
		{name: "sign missing page", jobType: JobTypeSign, raw: `{"signature_image":"aGk="}`, wantErr: true},

		{name: "unknown field rejected", jobType: JobTypeCompress, raw: `{"quality":80,"mode":"fast"}`, wantErr: true},
		{name: "options for wrong type rejected", jobType: JobTypeRotate, raw: `{"quality":80}`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var raw json.RawMessage
			if tc.raw != "" {
				raw = json.RawMessage(tc.raw)
			}
			_, err := DecodeOptions(tc.jobType, raw)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinInputDocuments(t *testing.T) {
	if MinInputDocuments(JobTypeMerge) != 2 {
		t.Fatal("merge needs at least two documents")
	}
	if MinInputDocuments(JobTypeConvert) != 1 {
		t.Fatal("convert needs exactly one document")
	}
}
