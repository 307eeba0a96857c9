package looper

// ComputeGain is the mixer policy: it returns the gain of a track source given
// the track, the global settings and the currently soloed track (nil if none).
// A solo on another track silences the track regardless of its own settings;
// otherwise a muted track is silent and an active one plays at its own gain
// scaled by the global track gain.
func ComputeGain(track *Track, settings *Settings, solo *Track) float64 {
	if solo != nil && solo != track {
		return 0
	}
	if !track.Active {
		return 0
	}
	return clamp(track.GainValue*settings.TrackGainValue, 0, 1)
}

func clamp[T int | float64](value, lo, hi T) T {
	return min(max(value, lo), hi)
}
