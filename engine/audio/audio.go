// Package audio manages sound effects and the speed-pitched engine hum.
package audio

import "github.com/neonrush/rush-engine/engine/sim"

// SoundID identifies a sound effect
type SoundID string

const (
	SndCrash    SoundID = "crash"
	SndPickup   SoundID = "pickup"
	SndClick    SoundID = "click"
	SndGameOver SoundID = "gameover"
)

// AudioManager handles sound effects and the continuous engine tone.
// Uses Ebitengine's audio package internally.
type AudioManager struct {
	MasterVolume float64
	SFXVolume    float64
	Muted        bool

	// EnginePitch follows the current run speed, 1.0 at base speed
	EnginePitch float64
}

func NewAudioManager() *AudioManager {
	return &AudioManager{
		MasterVolume: 1.0,
		SFXVolume:    0.8,
		EnginePitch:  1.0,
	}
}

// SetEngineSpeed retunes the engine hum to the current run speed
func (am *AudioManager) SetEngineSpeed(speed float64) {
	if speed <= 0 {
		am.EnginePitch = 0
		return
	}
	am.EnginePitch = speed / sim.InitialSpeed
}

// PlaySFX plays a one-shot sound effect
func (am *AudioManager) PlaySFX(id SoundID) {
	if am.Muted {
		return
	}
	vol := am.SFXVolume * am.MasterVolume
	_ = vol
	// In a real implementation, we'd load and play audio bytes via
	// ebiten/audio. For now this is a stub that integrates into the
	// architecture.
}

// ToggleMute flips the mute state and returns the new value
func (am *AudioManager) ToggleMute() bool {
	am.Muted = !am.Muted
	return am.Muted
}

// SetVolume sets master volume (0-1)
func (am *AudioManager) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	am.MasterVolume = v
}
