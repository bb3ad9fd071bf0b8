package source

import (
	"context"
	"encoding/csv"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"

	"github.com/hiresignal/scout-cli/internal/model"
)

// FTPDropConfig locates a partner CSV drop on an FTP server.
type FTPDropConfig struct {
	URL     string // ftp://host[:port]/path/leads.csv
	Timeout time.Duration
}

// FTPDropSource ingests lead CSVs partners drop on an FTP server. The
// drop is anonymous read-only; rows missing company, title, or link are
// skipped.
type FTPDropSource struct {
	cfg FTPDropConfig

	download func(ctx context.Context) (io.ReadCloser, error)
}

// NewFTPDropSource creates a source over the given drop location.
func NewFTPDropSource(cfg FTPDropConfig) *FTPDropSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &FTPDropSource{cfg: cfg}
	s.download = s.ftpDownload
	return s
}

func (s *FTPDropSource) Name() string { return "ftpdrop" }

// FetchLeads downloads the drop file and maps its rows to leads.
func (s *FTPDropSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	rc, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return parseLeadsCSV(s.Name(), rc)
}

func (s *FTPDropSource) ftpDownload(ctx context.Context) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(s.cfg.URL)
	if err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(s.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "ftpdrop: dial %s", host)
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "ftpdrop: anonymous login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "ftpdrop: retrieve %s", path)
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// parseFTPURL splits an ftp:// URL into a dialable host:port and a path.
func parseFTPURL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrapf(err, "ftpdrop: parse url %s", rawURL)
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ftpdrop: unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return "", "", eris.Errorf("ftpdrop: url %s has no file path", rawURL)
	}

	port := u.Port()
	if port == "" {
		port = "21"
	}
	return net.JoinHostPort(u.Hostname(), port), u.Path, nil
}

// ftpConnReader closes both the data transfer and the control connection.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return respErr
	}
	return quitErr
}

// parseLeadsCSV maps drop rows to leads by header name. Partners vary
// column order, so the header row is required.
func parseLeadsCSV(sourceName string, r io.Reader) ([]model.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ftpdrop: read header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"company", "title", "link"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("ftpdrop: header missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var leads []model.Lead
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return leads, eris.Wrap(err, "ftpdrop: read row")
		}

		company := field(row, "company")
		title := field(row, "title")
		link := field(row, "link")
		if company == "" || title == "" || link == "" {
			continue
		}

		lead := newLead(sourceName, company, title, link)
		lead.ApplyLink = field(row, "apply_link")
		lead.Location = field(row, "location")
		lead.Snippet = field(row, "snippet")
		if kw := field(row, "keywords"); kw != "" {
			lead.Keywords = splitKeywords(kw)
		}
		lead.PostedAt = parseTime(field(row, "posted_at"))
		leads = append(leads, lead)
	}
	return leads, nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
