package music

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/keshon/guild-jukebox/internal/command"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/samber/lo"
)

const historyTitleWidth = 40

func (c *MusicCommand) runHistory(sc *command.SlashContext) error {
	if sc.Storage == nil {
		return c.reply(sc, "History is not available.", true)
	}

	history, err := sc.Storage.TracksHistory(sc.Event.GuildID)
	if err != nil {
		sc.Log.Warn().Err(err).Str("guild", sc.Event.GuildID).Msg("failed to read history")
		return c.reply(sc, "Could not read the play history.", true)
	}
	return c.reply(sc, codeBlock(renderHistory(history)), false)
}

// renderHistory draws played tracks, most recent first.
func renderHistory(history []storage.PlayedTrack) string {
	if len(history) == 0 {
		return "Nothing has been played yet."
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Track", "Played (UTC)"})
	t.AppendRows(lo.Map(history, func(p storage.PlayedTrack, i int) table.Row {
		label := lo.Ternary(p.Title != "", p.Title, p.URL)
		if r := []rune(label); len(r) > historyTitleWidth {
			label = string(r[:historyTitleWidth-1]) + "…"
		}
		return table.Row{i + 1, label, p.PlayedAt.UTC().Format("01-02 15:04")}
	}))
	return t.Render()
}
