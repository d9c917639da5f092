// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "runtime"

// Default audio tool invocations per platform. Users with other tools
// installed (sox, ffmpeg) can override these in the [voice] section.

func defaultRecordCommand() string {
	switch runtime.GOOS {
	case "darwin":
		// sox ships a "rec" alias bound to the default input device
		return "rec -q {out}"
	case "linux":
		return "arecord -q -f cd {out}"
	default:
		return "ffmpeg -loglevel quiet -f dshow -i audio=default {out}"
	}
}

func defaultPlayCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "afplay {in}"
	case "linux":
		return "aplay -q {in}"
	default:
		return "ffplay -nodisp -autoexit -loglevel quiet {in}"
	}
}
