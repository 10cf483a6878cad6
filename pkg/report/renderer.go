package report

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

const (
	fontFamily = "Report"
	noData     = "No data"

	pageMargin   = 15.0
	footerHeight = 12.0
	lineHeight   = 5.5
	headingSize  = 12.0
	bodySize     = 10.0
	qrSize       = 28.0
)

type RendererConfig struct {
	FontPath      string
	LogoPath      string
	PublicBaseURL string
	Title         string
	Now           func() time.Time
}

type Renderer struct {
	cfg    RendererConfig
	assets *Assets
}

func NewRenderer(cfg RendererConfig, assets *Assets) *Renderer {
	if assets == nil {
		assets = DefaultAssets()
	}
	if cfg.Title == "" {
		cfg.Title = "Aman AI consultation report"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Renderer{cfg: cfg, assets: assets}
}

// VerifyURL is the link encoded in the report QR code.
func (r *Renderer) VerifyURL(id string) string {
	return r.cfg.PublicBaseURL + "/verify/" + id
}

// Render writes report as PDF to w. Both report kinds share one layout.
func (r *Renderer) Render(w io.Writer, rep Report) error {
	font, err := r.assets.Font(r.cfg.FontPath)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddUTF8FontFromBytes(fontFamily, "", font)
	if pdf.Err() {
		return fmt.Errorf("%w: %v", ErrFontUnavailable, pdf.Error())
	}

	pdf.AddPage()
	meta := rep.Metadata()
	r.header(pdf, meta)
	r.patient(pdf, meta.Patient)

	for _, s := range rep.sections() {
		r.section(pdf, s)
	}

	r.footers(pdf)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// RenderBytes is Render into memory.
func (r *Renderer) RenderBytes(rep Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, meta Meta) {
	pageW, _ := pdf.GetPageSize()
	top := pdf.GetY()
	textX := pageMargin

	if logo := r.assets.Logo(r.cfg.LogoPath); logo != nil {
		opts := fpdf.ImageOptions{ImageType: imageType(logo)}
		if opts.ImageType != "" {
			pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
			if !pdf.Err() {
				pdf.ImageOptions("logo", pageMargin, top, 0, 16, false, opts, 0, "")
				textX = pageMargin + 30
			} else {
				pdf.ClearError()
			}
		}
	}

	if meta.ID != "" {
		if png, err := qrcode.Encode(r.VerifyURL(meta.ID), qrcode.Medium, 256); err == nil {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
			pdf.ImageOptions("qr", pageW-pageMargin-qrSize, top, qrSize, qrSize, false, opts, 0, r.VerifyURL(meta.ID))
		}
	}

	created := meta.CreatedAt
	if created.IsZero() {
		created = r.cfg.Now()
	}

	pdf.SetXY(textX, top)
	pdf.SetFont(fontFamily, "", 16)
	pdf.CellFormat(0, 9, r.cfg.Title, "", 2, "L", false, 0, "")
	pdf.SetX(textX)
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.CellFormat(0, lineHeight, created.Format("02.01.2006 15:04"), "", 2, "L", false, 0, "")
	if meta.ID != "" {
		pdf.SetX(textX)
		pdf.CellFormat(0, lineHeight, "ID: "+meta.ID, "", 2, "L", false, 0, "")
	}

	y := top + qrSize + 4
	if pdf.GetY() > y {
		y = pdf.GetY() + 4
	}
	pdf.Line(pageMargin, y-2, pageW-pageMargin, y-2)
	pdf.SetXY(pageMargin, y)
}

func (r *Renderer) patient(pdf *fpdf.Fpdf, p Patient) {
	rows := [][2]string{
		{"Patient", p.Name},
		{"Date of birth", p.BirthDate},
		{"ID number", p.IDNumber},
		{"Doctor", p.Doctor},
	}
	pdf.SetFont(fontFamily, "", bodySize)
	for _, row := range rows {
		value := row[1]
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		pdf.CellFormat(40, lineHeight, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, lineHeight, value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) section(pdf *fpdf.Fpdf, s Section) {
	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*pageMargin

	body := strings.TrimSpace(s.Body)
	if body == "" {
		body = noData
	}

	pdf.SetFont(fontFamily, "", bodySize)
	var lines []string
	for _, paragraph := range strings.Split(body, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrap(pdf, paragraph, width)...)
	}

	// keep the heading with at least the first lines of its body
	need := headingSize*0.7 + float64(min(len(lines), 3))*lineHeight
	r.ensureSpace(pdf, need)

	pdf.SetFont(fontFamily, "", headingSize)
	pdf.CellFormat(0, headingSize*0.7, s.Title, "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", bodySize)
	for _, line := range lines {
		r.ensureSpace(pdf, lineHeight)
		pdf.CellFormat(0, lineHeight, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func (r *Renderer) ensureSpace(pdf *fpdf.Fpdf, height float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+height > pageH-pageMargin-footerHeight {
		pdf.AddPage()
	}
}

// footers numbers every page once the total is known.
func (r *Renderer) footers(pdf *fpdf.Fpdf) {
	pageW, pageH := pdf.GetPageSize()
	total := pdf.PageCount()
	for n := 1; n <= total; n++ {
		pdf.SetPage(n)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetXY(pageMargin, pageH-pageMargin-footerHeight/2)
		pdf.CellFormat(pageW-2*pageMargin, 4, fmt.Sprintf("%d / %d", n, total), "", 0, "C", false, 0, "")
	}
}

// wrap splits text into lines no wider than width using the current font.
func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && pdf.GetStringWidth(candidate) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
