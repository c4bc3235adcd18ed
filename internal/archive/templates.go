package archive

import (
	"html/template"

	"github.com/odyssey-erp/ledger-archive/web"
)

// parsePages loads the archive page templates (nav, voucher, index).
func parsePages() (*template.Template, error) {
	return template.New("archive").ParseFS(web.Templates, web.ArchivePages)
}
