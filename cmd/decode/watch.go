// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/latticeasr/decoder/internal/api"
)

var watchCmd = &cobra.Command{
	Use:   "watch <ws-url>",
	Short: "Watch an in-flight decode's per-frame progress live",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	conn, _, err := websocket.DefaultDialer.Dial(args[0], nil)
	if err != nil {
		return fmt.Errorf("watch: connecting to %s: %w", args[0], err)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := watchModel{conn: conn, spinner: s}
	p := tea.NewProgram(m)
	_, err = p.Run()
	conn.Close()
	return err
}

// progressMsg wraps one frame of decode progress delivered over the
// websocket, so bubbletea's Update can treat it as just another
// tea.Msg alongside key presses and window resizes.
type progressMsg api.ProgressMessage

// streamClosedMsg signals the websocket connection ended, normally
// because the decode finished.
type streamClosedMsg struct{ err error }

type watchModel struct {
	conn    *websocket.Conn
	spinner spinner.Model
	latest  api.ProgressMessage
	samples int
	done    bool
	err     error
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.readNext, m.spinner.Tick)
}

func (m watchModel) readNext() tea.Msg {
	var msg api.ProgressMessage
	if err := m.conn.ReadJSON(&msg); err != nil {
		return streamClosedMsg{err: err}
	}
	return progressMsg(msg)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.latest = api.ProgressMessage(msg)
		m.samples++
		return m, m.readNext
	case streamClosedMsg:
		m.done = true
		if msg.err != nil {
			m.err = msg.err
		}
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	watchLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(18)
)

func (m watchModel) View() string {
	if m.done {
		if m.err != nil {
			return fmt.Sprintf("stream closed: %v\n", m.err)
		}
		return "decode finished\n"
	}

	row := func(label string, value any) string {
		return fmt.Sprintf("%s %v\n", watchLabelStyle.Render(label), value)
	}

	var view string
	view += watchTitleStyle.Render("decode watch") + " " + m.spinner.View() + "\n\n"
	view += row("frame", m.latest.Frame)
	view += row("emitting size", m.latest.EmittingSize)
	view += row("pruned size", m.latest.PrunedSize)
	view += row("result list", m.latest.ResultListSize)
	view += row("best score", m.latest.BestScore)
	view += row("best transcript", m.latest.BestTranscript)
	view += "\npress q to quit\n"
	return view
}
