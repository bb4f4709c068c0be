package usecase

import (
	"errors"
	"fmt"
	"io"

	"voicejot/internal/domain"
	"voicejot/internal/pcm"
)

// pumpFrames pushes captured frames through the encoder and over the
// open session as they arrive. The push is continuous and unbounded;
// the stale flag is the only brake, checked before every send because
// a frame captured after stop-initiation must never reach a session
// that is about to close.
func (c *SessionController) pumpFrames(active *activeSession) {
	defer close(active.pumpDone)

	for {
		frame, err := active.audio.ReadFrame()
		if len(frame) > 0 && !active.stale.Load() {
			payload := pcm.FramePayload(frame)
			if sendErr := active.stream.SendAudio(payload); sendErr != nil {
				if !active.stale.Load() {
					c.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("failed to stream audio: %v", sendErr))
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !active.stale.Load() {
				c.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}
