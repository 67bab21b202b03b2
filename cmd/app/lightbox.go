package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/leaflora/memoria/internal"
	"github.com/leaflora/memoria/internal/carousel"
	"github.com/leaflora/memoria/internal/models"
)

// lightboxController is the surface shared by the photo and video viewers.
type lightboxController interface {
	Open(seq []string, startIndex int)
	Close()
	HandleKey(carousel.Key)
	Snapshot() carousel.Snapshot
}

// runLightbox drives a viewer over the record's media until it closes.
// The terminal is put into raw mode so single keypresses arrive without
// a newline; Esc or q exits, arrows navigate, and for videos f marks the
// current one as finished so the next starts after the usual pause.
func runLightbox(app *internal.App, record models.MemoryRecord, start int) error {
	done := make(chan struct{})
	var once sync.Once

	listener := func(snap carousel.Snapshot) {
		app.Renderer.RenderFrame(snap)
		if !snap.Open {
			once.Do(func() { close(done) })
		}
	}

	var ctrl lightboxController
	var video *carousel.VideoController
	if record.Type == models.KindVideo {
		video = carousel.NewVideo(carousel.WithListener(listener))
		ctrl = video
	} else {
		ctrl = carousel.New(carousel.WithListener(listener))
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("lightbox: raw mode: %w", err)
		}
		defer term.Restore(fd, old)
	}

	ctrl.Open(record.MediaURLs, start)
	if !ctrl.Snapshot().Open {
		return nil
	}

	go readKeys(ctrl, video, done)
	<-done
	return nil
}

// readKeys translates raw terminal bytes into viewer keys until the
// viewer closes. Arrow keys arrive as three-byte escape sequences; a
// bare Esc closes the viewer just like it does in a browser.
func readKeys(ctrl lightboxController, video *carousel.VideoController, done <-chan struct{}) {
	buf := make([]byte, 8)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			ctrl.Close()
			return
		}

		for i := 0; i < n; i++ {
			switch buf[i] {
			case 0x1b:
				if i+2 < n && buf[i+1] == '[' {
					switch buf[i+2] {
					case 'C':
						ctrl.HandleKey(carousel.KeyArrowRight)
					case 'D':
						ctrl.HandleKey(carousel.KeyArrowLeft)
					}
					i += 2
					continue
				}
				ctrl.HandleKey(carousel.KeyEscape)
			case 'q', 0x03:
				ctrl.Close()
			case 'f':
				if video != nil {
					video.VideoEnded()
				}
			}
		}
	}
}
