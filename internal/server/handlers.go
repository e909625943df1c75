package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KaranKumar0402/Commodity-price/internal/labels"
	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
	"github.com/KaranKumar0402/Commodity-price/internal/report"
	"github.com/KaranKumar0402/Commodity-price/internal/selector"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var templateFuncs = template.FuncMap{
	"rs": func(v float64) string {
		return humanize.FormatFloat("#,###.##", v)
	},
	"ago": humanize.Time,
	"date": func(t time.Time) string {
		return t.Format(dateLayout)
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
}

type bounds struct {
	MinArrival, MaxArrival float64
	MinPriceLo, MinPriceHi float64
	MaxPriceLo, MaxPriceHi float64
}

var inputBounds = bounds{
	MinArrival: models.MinArrival, MaxArrival: models.MaxArrival,
	MinPriceLo: models.MinPriceLo, MinPriceHi: models.MinPriceHi,
	MaxPriceLo: models.MaxPriceLo, MaxPriceHi: models.MaxPriceHi,
}

// pageData is everything the form template renders
type pageData struct {
	Selection   models.Selection
	Date        string
	Inputs      models.Inputs
	Stages      selector.Stages
	Bounds      bounds
	Notice      string
	Error       string
	Forecast    *models.Forecast
	ChartURL    template.URL
	WorkbookURL template.URL
	Recent      []models.Forecast
}

func (s *Server) newPage(sess *models.Session) pageData {
	page := pageData{
		Selection: sess.Selection,
		Inputs:    sess.Inputs,
		Bounds:    inputBounds,
		Recent:    s.opts.Store.GetForecasts(sess.ID),
	}
	if !sess.Selection.Date.IsZero() {
		page.Date = sess.Selection.Date.Format(dateLayout)
	}
	return page
}

// withHistory links the chart and workbook of the selected market and commodity
func (p *pageData) withHistory(sel models.Selection) {
	q := historyQuery(sel)
	p.ChartURL = template.URL("/chart.svg?" + q)
	p.WorkbookURL = template.URL("/history.xlsx?" + q)
}

func (s *Server) today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// index renders the form. Without a query the visitor's last selection is
// restored; otherwise the query is the new selection.
func (s *Server) index(c *gin.Context) {
	sess := currentSession(c)

	if len(c.Request.URL.Query()) > 0 {
		sel, in, err := parseForm(c.Request, s.today())
		if err != nil {
			s.render(c, http.StatusBadRequest, sess, func(p *pageData) { p.Error = err.Error() })
			return
		}
		sess.Selection, sess.Inputs = sel, in
		sess.Last = nil
	} else if sess.Selection.Date.IsZero() {
		sess.Selection.Date = s.today()
		sess.Selection.State = s.opts.DefaultState
	}

	var stages selector.Stages
	sess.Selection, stages = selector.Resolve(sess.Selection, s.opts.Labels, s.opts.Table)
	if sess.Last != nil && sess.Last.Selection != sess.Selection {
		sess.Last = nil
	}
	if stages.Err != nil {
		s.renderMismatch(c, sess, stages, stages.Err)
		return
	}

	s.render(c, http.StatusOK, sess, func(p *pageData) {
		p.Stages = stages
		p.Forecast = sess.Last
		if sess.Last != nil {
			p.withHistory(sess.Selection)
		}
	})
}

// forecast evaluates a submitted form: the selection is resolved against the
// current options, encoded, scored by the model and compared with the
// market's recent arrivals.
func (s *Server) forecast(c *gin.Context) {
	sess := currentSession(c)

	sel, in, err := parseForm(c.Request, s.today())
	if err != nil {
		s.render(c, http.StatusBadRequest, sess, func(p *pageData) { p.Error = err.Error() })
		return
	}

	sel, stages := selector.Resolve(sel, s.opts.Labels, s.opts.Table)
	sess.Selection, sess.Inputs, sess.Last = sel, in, nil
	withStages := func(p *pageData) { p.Stages = stages }

	if stages.Err != nil {
		s.renderMismatch(c, sess, stages, stages.Err)
		return
	}
	if !sel.Complete() {
		s.render(c, http.StatusOK, sess, withStages, func(p *pageData) {
			p.Notice = fmt.Sprintf("Choose a %s to get a forecast.", sel.Missing())
		})
		return
	}
	if err := in.Validate(); err != nil {
		s.render(c, http.StatusBadRequest, sess, withStages, func(p *pageData) { p.Error = err.Error() })
		return
	}

	vec, err := selector.Assemble(sel, in, s.opts.Labels)
	if err != nil {
		var mismatch *labels.MismatchError
		if errors.As(err, &mismatch) {
			s.renderMismatch(c, sess, stages, err)
			return
		}
		logger.Error("Failed to assemble features: %v", err)
		s.render(c, http.StatusInternalServerError, sess, withStages, func(p *pageData) { p.Error = err.Error() })
		return
	}

	rep := report.Prepare(s.opts.Table, sel.State, sel.District, sel.Market, sel.Commodity)
	f := &models.Forecast{
		ID:         uuid.NewString(),
		Selection:  sel,
		Inputs:     in,
		Price:      s.opts.Model.Predict(vec),
		AvgArrival: rep.AvgArrival,
		HasHistory: rep.HasHistory,
		Advisory:   report.Classify(in.Arrival, rep),
		CreatedAt:  time.Now(),
	}
	logger.Info("Forecast %s: %s at %s = Rs %.2f (arrival %.2f, avg %.2f, advisory %q)",
		f.ID, sel.Commodity, sel.Market, f.Price, in.Arrival, f.AvgArrival, f.Advisory)

	sess.Last = f
	if err := s.opts.Store.AddForecast(sess.ID, f); err != nil {
		logger.Warn("Failed to record forecast %s: %v", f.ID, err)
	}

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.NotifyForecast(f); err != nil {
			logger.Warn("Failed to send forecast notification: %v", err)
		}
	}

	s.render(c, http.StatusOK, sess, withStages, func(p *pageData) {
		p.Forecast = f
		p.withHistory(sel)
	})
}

// renderMismatch shows a data-integrity failure: the artifacts disagree with
// each other or with the dataset, so no choice on the form can fix it.
func (s *Server) renderMismatch(c *gin.Context, sess *models.Session, stages selector.Stages, err error) {
	logger.Error("Data integrity mismatch for %s at %s: %v", sess.Selection.Commodity, sess.Selection.Market, err)
	s.render(c, http.StatusUnprocessableEntity, sess, func(p *pageData) {
		p.Stages = stages
		p.Error = "The precomputed mappings do not match the dataset: " + err.Error()
	})
}

func (s *Server) render(c *gin.Context, status int, sess *models.Session, opts ...func(*pageData)) {
	page := s.newPage(sess)
	for _, opt := range opts {
		opt(&page)
	}
	if page.Stages.States == nil {
		page.Stages = selector.Options(sess.Selection, s.opts.Labels, s.opts.Table)
	}
	c.HTML(status, "index.html", page)
}

// historyReport reads the market and commodity from the query
func (s *Server) historyReport(c *gin.Context) (report.Report, bool) {
	state, district := c.Query("state"), c.Query("district")
	market, commodity := c.Query("market"), c.Query("commodity")
	if state == "" || district == "" || market == "" || commodity == "" {
		c.String(http.StatusBadRequest, "state, district, market and commodity are required")
		return report.Report{}, false
	}
	return report.Prepare(s.opts.Table, state, district, market, commodity), true
}

func (s *Server) chart(c *gin.Context) {
	rep, ok := s.historyReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.RenderChart(&buf, rep); err != nil {
		logger.Error("Failed to render chart: %v", err)
		c.String(http.StatusInternalServerError, "failed to render chart")
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) history(c *gin.Context) {
	rep, ok := s.historyReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, rep); err != nil {
		logger.Error("Failed to write workbook: %v", err)
		c.String(http.StatusInternalServerError, "failed to write workbook")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="history.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"records": s.opts.Table.Len(),
	})
}
