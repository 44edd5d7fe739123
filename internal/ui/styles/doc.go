// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the wlctl terminal UI.
//
// Colors are lipgloss.AdaptiveColor values so light and dark terminals both
// render legibly. Every status also carries an ASCII indicator so state
// never depends on color alone.
//
// # Key Types
//
//   - Theme: All styled components, built once per program
//   - StatusIndicatorSet: Shape indicators shown next to colored text
//
// # Usage
//
//	theme := styles.NewTheme()
//	fmt.Println(theme.Enabled.Render("ENABLED"))
package styles
