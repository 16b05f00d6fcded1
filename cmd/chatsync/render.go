package main

import (
	"chat-sync/domain"
	"chat-sync/services"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type printer struct {
	w       io.Writer
	colours bool
}

func newPrinter(w io.Writer, colours bool) *printer {
	return &printer{w: w, colours: colours}
}

func (p *printer) paint(style color.Style, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.colours {
		text = style.Render(text)
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) success(format string, args ...any) {
	p.paint(color.New(color.FgGreen), format, args...)
}

func (p *printer) info(format string, args ...any) {
	p.paint(color.New(color.FgCyan), format, args...)
}

func (p *printer) failure(format string, args ...any) {
	p.paint(color.New(color.FgRed, color.OpBold), format, args...)
}

func (p *printer) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func (p *printer) identities(users []domain.Identity) {
	table := p.table([]string{"ID", "Username", "Photo", "Devices"})
	for _, u := range users {
		table.Append([]string{u.ID, u.Username, lo.FromPtr(u.PhotoURL), fmt.Sprint(len(u.PushTokens))})
	}
	table.Render()
}

func (p *printer) directory(previews []services.Preview) {
	table := p.table([]string{"ID", "Username", "Last message"})
	for _, preview := range previews {
		table.Append([]string{preview.Peer.ID, preview.Peer.Username, preview.Text()})
	}
	table.Render()
}

func (p *printer) groups(groups []domain.Group) {
	table := p.table([]string{"ID", "Name", "Creator", "Members"})
	for _, g := range groups {
		table.Append([]string{g.ID, g.Name, g.CreatedBy, strings.Join(g.Members, ", ")})
	}
	table.Render()
}

// timeline prints oldest first so the newest message ends up above the prompt.
func (p *printer) timeline(viewerID string, view []domain.Message) {
	messages := slices.Clone(view)
	slices.Reverse(messages)

	table := p.table([]string{"At", "From", "Message", "Status", "ID"})
	for _, m := range messages {
		text := m.Text
		if len(m.Attachments) > 0 {
			text = strings.TrimSpace(fmt.Sprintf("%s %s", text, strings.Join(m.Attachments, " ")))
		}
		if m.Edited {
			text += " (edited)"
		}
		from := m.SenderID
		if p.colours && m.SenderID == viewerID {
			from = color.New(color.FgYellow).Render(from)
		}
		table.Append([]string{
			time.UnixMilli(m.CreatedAt).Format(time.TimeOnly),
			from,
			text,
			status(viewerID, m),
			m.ID,
		})
	}
	table.Render()
}

// status shows who saw a message sent by the viewer.
func status(viewerID string, m domain.Message) string {
	if m.SenderID != viewerID {
		return ""
	}
	readers := lo.Without(m.ReadBy, viewerID)
	if len(readers) == 0 {
		return "sent"
	}
	if !m.IsGroup {
		return "seen"
	}
	return fmt.Sprintf("seen by %d", len(readers))
}
