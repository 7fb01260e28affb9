// Package protocol defines the message envelope and catalogue exchanged
// between client tabs and the coordinator. The protocol is transport
// agnostic: envelopes travel over any bidirectional channel that can carry
// JSON.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/corvale/chorus/internal/core"
)

// Revision identifies the wire protocol generation. Tabs and coordinators
// built from the same revision understand each other's envelopes.
const Revision = 1

// Message types sent by tabs to the coordinator.
const (
	TypeRegisterTab        = "REGISTER_TAB"
	TypeUnregisterTab      = "UNREGISTER_TAB"
	TypeTabCanPlayAudio    = "TAB_CAN_PLAY_AUDIO"
	TypeReplacePlaylist    = "REPLACE_PLAYLIST"
	TypeAddToPlaylist      = "ADD_TO_PLAYLIST"
	TypeRemoveFromPlaylist = "REMOVE_FROM_PLAYLIST"
	TypeClearPlaylist      = "CLEAR_PLAYLIST"
	TypePlayFile           = "PLAY_FILE"
	TypeTogglePlayPause    = "TOGGLE_PLAY_PAUSE"
	TypePlayNext           = "PLAY_NEXT"
	TypePlayPrevious       = "PLAY_PREVIOUS"
	TypeSeekTo             = "SEEK_TO"
	TypeChangeVolume       = "CHANGE_VOLUME"
	TypeCycleRepeatMode    = "CYCLE_REPEAT_MODE"
	TypeTogglePanel        = "TOGGLE_PLAYLIST_PANEL"
	TypeSetPanelCollapsed  = "SET_PLAYLIST_COLLAPSED"
	TypeUpdateTime         = "UPDATE_TIME"
	TypeUpdateDuration     = "UPDATE_DURATION"
	TypeAudioEnded         = "AUDIO_ENDED"
	TypeSaveCurrentState   = "SAVE_CURRENT_STATE"
	TypeLoadStateResponse  = "LOAD_STATE_RESPONSE"
	TypeFilesAvailable     = "FILES_AVAILABLE"
)

// Message types sent by the coordinator to tabs. SEEK_TO and
// SET_PLAYLIST_COLLAPSED appear in both directions.
const (
	TypeStateUpdate      = "STATE_UPDATE"
	TypeStartAudio       = "START_AUDIO"
	TypeStopAudio        = "STOP_AUDIO"
	TypeVolumeUpdate     = "VOLUME_UPDATE"
	TypeTimeUpdate       = "TIME_UPDATE"
	TypeDurationUpdate   = "DURATION_UPDATE"
	TypeRepeatCurrent    = "REPEAT_CURRENT"
	TypeLoadStateRequest = "LOAD_STATE_REQUEST"
	TypeSaveStateRequest = "SAVE_STATE_REQUEST"
)

// Envelope wraps every message on the wire.
type Envelope struct {
	Type  string          `json:"type"`
	TabID string          `json:"tabId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// New builds an envelope, marshaling the payload. A nil payload produces an
// envelope with no data.
func New(msgType, tabID string, payload any) (Envelope, error) {
	env := Envelope{Type: msgType, TabID: tabID}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env.Data = data
	return env, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Tab → coordinator payloads.

type RegisterTab struct {
	CanProduceAudio bool `json:"canProduceAudio"`
}

type TabCanPlayAudio struct {
	CanProduceAudio bool `json:"canProduceAudio"`
}

type ReplacePlaylist struct {
	Files      []core.Track `json:"files"`
	StartIndex int          `json:"startIndex"`
}

type AddToPlaylist struct {
	Files []core.Track `json:"files"`
}

type RemoveFromPlaylist struct {
	FileID string `json:"fileId"`
}

type PlayFile struct {
	File core.Track `json:"file"`
}

type SeekTo struct {
	Time float64 `json:"time"`
}

type ChangeVolume struct {
	Volume float64 `json:"volume"`
}

type SetPanelCollapsed struct {
	Collapsed bool `json:"collapsed"`
}

type UpdateTime struct {
	CurrentTime float64 `json:"currentTime"`
}

type UpdateDuration struct {
	Duration float64 `json:"duration"`
}

// LoadStateResponse carries the persisted snapshot a tab read from its
// bridge. State is nil when the tab has nothing saved.
type LoadStateResponse struct {
	State *core.PlaybackState `json:"state"`
}

type FilesAvailable struct {
	Files []core.Track `json:"files"`
}

// Coordinator → tab payloads.

type StateUpdate struct {
	State            core.PlaybackState `json:"state"`
	ActiveAudioTabID string             `json:"activeAudioTabId,omitempty"`
}

type StartAudio struct {
	State core.PlaybackState `json:"state"`
}

type VolumeUpdate struct {
	Volume float64 `json:"volume"`
}

type TimeUpdate struct {
	CurrentTime float64 `json:"currentTime"`
}

type DurationUpdate struct {
	Duration float64 `json:"duration"`
}

// SaveStateRequest asks a tab to persist the supplied snapshot through its
// bridge. The snapshot is already sanitized by the coordinator.
type SaveStateRequest struct {
	State core.PlaybackState `json:"state"`
}
