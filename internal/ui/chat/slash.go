// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Slash commands typed into the input box. These are local controls,
// not messages to the coach.
package chat

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// parseSlash splits "/cmd arg arg" into a lowercase command name and
// its argument remainder.
func parseSlash(input string) (cmd, args string) {
	input = strings.TrimSpace(strings.TrimPrefix(input, "/"))
	if input == "" {
		return "", ""
	}
	parts := strings.SplitN(input, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

// handleSlash executes a slash command.
func (m Model) handleSlash(input string) (tea.Model, tea.Cmd) {
	cmd, args := parseSlash(input)

	switch cmd {
	case "clear":
		m.saveNow()
		m.conv.ClearHistory()
		m.refreshTranscript()
		return m, nil

	case "history":
		return m, listHistoryCmd(m.hist, 10)

	case "search":
		if args == "" {
			m.notices.AddStatus("Usage: /search <text>")
			return m, nil
		}
		return m, searchHistoryCmd(m.hist, args, 10)

	case "load":
		return m.loadFromListing(args)

	case "voice":
		if args != "" {
			m.dispatcher.SetVoice(args)
			m.loop.SetVoice(args)
			m.notices.AddStatus("Voice set to " + args + ".")
			return m, nil
		}
		return m.enterVoiceMode()

	case "autospeak":
		on := !m.dispatcher.AutoSpeak()
		m.dispatcher.SetAutoSpeak(on)
		m.statusBar.AutoSpeak = on
		if on {
			m.notices.AddStatus("Replies will be spoken aloud.")
		} else {
			m.notices.AddStatus("Auto-speak off.")
		}
		return m, nil

	case "speak":
		return m.speakLastReply()

	case "usage":
		return m, fetchUsageCmd(m.client)

	case "memories":
		userID, err := m.ident.UserID()
		if err != nil {
			m.notices.Add(noticeFor(err))
			return m, nil
		}
		return m, fetchMemoriesCmd(m.client, userID)

	case "help":
		m.conv.AddSystemMessage(helpText())
		m.refreshTranscript()
		return m, nil

	case "quit", "exit":
		return m.quit()

	default:
		m.notices.AddStatus("Unknown command: /" + cmd + " (try /help)")
		return m, nil
	}
}

// loadFromListing resolves a /load index against the last /history or
// /search listing.
func (m Model) loadFromListing(args string) (tea.Model, tea.Cmd) {
	if len(m.lastListing) == 0 {
		m.notices.AddStatus("Run /history first, then /load <n>.")
		return m, nil
	}

	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > len(m.lastListing) {
		m.notices.AddStatus("Usage: /load <1-" + strconv.Itoa(len(m.lastListing)) + ">")
		return m, nil
	}

	return m, loadHistoryCmd(m.hist, m.lastListing[n-1].ID)
}

// helpText lists the available commands and shortcuts.
func helpText() string {
	lines := []string{
		"Commands:",
		"  /clear          start a fresh session",
		"  /history        list saved sessions",
		"  /search <text>  search saved sessions",
		"  /load <n>       load a listed session",
		"  /voice [name]   start hands-free voice mode, or switch voices",
		"  /autospeak      toggle speaking replies aloud",
		"  /speak          speak the last reply",
		"  /usage          refresh the daily quota badge",
		"  /memories       refresh remembered facts",
		"  /quit           exit",
		"",
		"Shortcuts:",
		"  Enter   send    Ctrl+V  voice mode    Ctrl+T  speak last reply",
		"  Space   send recording (in voice mode)",
		"  Esc     dismiss notice / stop voice mode",
	}
	return strings.Join(lines, "\n")
}
