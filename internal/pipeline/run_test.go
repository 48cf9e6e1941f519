package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/graduation-audit/internal/pipeline/steps"
	"github.com/jonathan/graduation-audit/internal/types"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// stubSource serves a fixed curriculum page and records the requested years.
type stubSource struct {
	html      string
	err       error
	requested []string
}

func (s *stubSource) FetchCurriculum(_ context.Context, yearLabel string) (string, error) {
	s.requested = append(s.requested, yearLabel)
	return s.html, s.err
}

func part(root string, runs ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:" + root + " " + wordNS + ">")
	for _, r := range runs {
		sb.WriteString("<w:p><w:r><w:t>" + r + "</w:t></w:r></w:p>")
	}
	sb.WriteString("</w:" + root + ">")
	return sb.String()
}

func transcriptDocx(t *testing.T, header []string, body []string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml": part("document", body...),
		"word/header1.xml":  part("hdr", header...),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

var sampleHeader = []string{
	"TRANSKRİPT",
	"ADI SOYADI", "Ayşe Yılmaz",
	"ÖĞRENCİ NUMARASI", "201001001",
	"KAYIT TARİHİ", "15.09.2020",
}

var sampleBody = []string{
	"1. Yarıyıl",
	"MAT101", "Matematik I", "4.0", "6.0", "AA",
	"FİZ101", "Fizik I", "3.0", "5.0", "FF",
	"Dönem Sonu", "7", "30.0", "30", "3.10",
	"5. Yarıyıl",
	"BIL301", "Veri Yapıları", "3.0", "5.0", "BB",
	"BIL512", "Görüntü İşleme", "3.0", "5.0", "CC",
	"BIL511", "Yapay Zeka", "3.0", "5.0", "BA",
	"Dönem Sonu", "9", "29.5", "60", "3.00",
	"7. Yarıyıl",
	"BIL711", "Dağıtık Sistemler", "3.0", "5.0", "CB",
	"Dönem Sonu", "3", "30.0", "90", "3.05",
	"Genel Not Ortalaması", "3,05",
}

func curriculumFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "curriculum", "testdata", "curriculum.html"))
	require.NoError(t, err)
	return string(data)
}

func TestRun_FullAudit(t *testing.T) {
	source := &stubSource{html: curriculumFixture(t)}
	doc := transcriptDocx(t, sampleHeader, sampleBody)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	var events []ProgressEvent
	report, err := Run(context.Background(), doc, doc.Size(), RunOptions{
		Source:     source,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
		Now:        func() time.Time { return fixed },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2020-2021"}, source.requested)
	assert.Equal(t, "2020-2021", report.AcademicYear)
	assert.Equal(t, fixed, report.GeneratedAt)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "Ayşe Yılmaz", report.Student[types.FieldName])
	assert.Equal(t, "201001001", report.Student[types.FieldStudentID])

	require.Len(t, report.Remaining, 2)
	assert.Equal(t, "FIZ101", report.Remaining[0].Code)
	assert.Equal(t, "FF", report.Remaining[0].Grade)
	assert.Equal(t, "BIL401", report.Remaining[1].Code)
	assert.Equal(t, types.NotTakenGrade, report.Remaining[1].Grade)
	assert.Equal(t, []string{"BIL512", "BIL511", "BIL711"}, report.Consumed)

	assert.Equal(t, []string{"5. Yarıyıl toplam AKTS'niz 29.5 olduğu için mezun olamazsınız."}, report.Warnings)
	assert.False(t, report.Eligible())

	require.Len(t, events, len(steps.Order))
	for i, e := range events {
		assert.Equal(t, steps.Order[i], e.Step)
		assert.Equal(t, report.ID, e.RunID)
		assert.NotEmpty(t, e.Category)
	}

	first := events[0]
	assert.Equal(t, []string{steps.CheckRules, steps.ParseSemesters, steps.ResolveYear}, first.Available)
	assert.Equal(t, []string{steps.FetchCurriculum, steps.ParseCurriculum, steps.Reconcile}, first.Blocked)

	last := events[len(events)-1]
	assert.Empty(t, last.Available)
	assert.Empty(t, last.Blocked)
}

func TestRun_EmptyListsSerializeAsArrays(t *testing.T) {
	body := []string{
		"1. Yarıyıl",
		"MAT101", "Matematik I", "4.0", "6.0", "AA",
		"FİZ101", "Fizik I", "3.0", "5.0", "BB",
		"Dönem Sonu", "7", "30.0", "30", "3.50",
	}
	html := `<div class="ibox"><div class="ibox-title"><h5>1. Yarıyıl</h5></div><div class="ibox-content">
<table class="table"><thead><tr><th>Kodu</th><th>Ders Adı</th><th>Kredi</th><th>AKTS</th><th>Zorunlu mu?</th></tr></thead>
<tbody><tr><td>MAT101</td><td>Matematik I</td><td>4</td><td>6</td><td>Evet</td></tr>
<tr><td>FİZ101</td><td>Fizik I</td><td>3</td><td>5</td><td>Evet</td></tr></tbody></table></div></div>`

	doc := transcriptDocx(t, sampleHeader, body)
	report, err := Run(context.Background(), doc, doc.Size(), RunOptions{Source: &stubSource{html: html}})
	require.NoError(t, err)

	assert.NotNil(t, report.Remaining)
	assert.NotNil(t, report.Consumed)
	assert.NotNil(t, report.Warnings)
	assert.True(t, report.Eligible())
}

func TestRun_MissingStartDate(t *testing.T) {
	source := &stubSource{html: curriculumFixture(t)}
	doc := transcriptDocx(t, []string{"ADI SOYADI", "Ayşe Yılmaz"}, sampleBody)

	_, err := Run(context.Background(), doc, doc.Size(), RunOptions{Source: source})
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, types.FieldStartDate, notFound.Key)
	assert.Empty(t, source.requested)
}

func TestRun_InvalidStartDate(t *testing.T) {
	doc := transcriptDocx(t, []string{"KAYIT TARİHİ", "2020/09/15"}, sampleBody)

	_, err := Run(context.Background(), doc, doc.Size(), RunOptions{Source: &stubSource{}})
	var formatErr *types.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestRun_SourceFailurePropagates(t *testing.T) {
	source := &stubSource{err: &types.NetworkError{Step: "load-program", URL: "http://x", Message: "timeout"}}
	doc := transcriptDocx(t, sampleHeader, sampleBody)

	_, err := Run(context.Background(), doc, doc.Size(), RunOptions{Source: source})
	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "load-program", netErr.Step)
	assert.Contains(t, err.Error(), "2020-2021")
}

func TestRun_CurriculumWithoutTables(t *testing.T) {
	doc := transcriptDocx(t, sampleHeader, sampleBody)

	_, err := Run(context.Background(), doc, doc.Size(), RunOptions{Source: &stubSource{html: "<html></html>"}})
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "curriculum", notFound.What)
}

func TestRun_NotAContainer(t *testing.T) {
	r := bytes.NewReader([]byte("plain text"))
	_, err := Run(context.Background(), r, r.Size(), RunOptions{Source: &stubSource{}})
	var structErr *types.StructuralError
	require.ErrorAs(t, err, &structErr)
}

func TestRun_RequiresSource(t *testing.T) {
	doc := transcriptDocx(t, sampleHeader, sampleBody)
	_, err := Run(context.Background(), doc, doc.Size(), RunOptions{})
	assert.Error(t, err)
}
