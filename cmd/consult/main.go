// Command consult records a consultation from the local microphone, keeps the
// server-side encounter in sync and prints the structured report when done.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/audio"
	"amanai-be/pkg/consultation"
	"amanai-be/pkg/encounter"
	"amanai-be/pkg/recording"
	"amanai-be/pkg/speaker"

	"github.com/fatih/color"
)

const usage = `Commands:
  p            pause
  r            resume
  f            finish and analyze
  c            cancel
  o <id> <role> override a speaker role (Provider, Patient, Other)
  s            show status
  q            quit (releases the microphone, keeps the encounter)`

func main() {
	apiURL := flag.String("api", "http://localhost:3000", "backend base URL")
	userID := flag.String("user", os.Getenv("AMANAI_USER_ID"), "user id sent as X-User-Id")
	token := flag.String("token", os.Getenv("AMANAI_TOKEN"), "bearer token (optional)")
	ffmpeg := flag.String("ffmpeg", "ffmpeg", "ffmpeg binary")
	device := flag.String("device", "", "capture device (default: system default)")
	echoSource := flag.String("echo-cancel-source", "", "pulse echo-cancel source name")
	lang := flag.String("lang", "ru", "message language (ru, kk, en)")
	flag.Parse()

	if *userID == "" {
		color.Red("A user id is required (-user or AMANAI_USER_ID)")
		os.Exit(2)
	}

	wsURL, err := analysis.BuildURL(*apiURL)
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clientOpts []encounter.ClientOption
	if *token != "" {
		clientOpts = append(clientOpts, encounter.WithToken(*token))
	}
	manager := encounter.NewManager(encounter.NewClient(*apiURL, *userID, clientOpts...))

	var captureOpts []audio.CaptureOption
	if *echoSource != "" {
		captureOpts = append(captureOpts, audio.WithEchoCancelSource(*echoSource))
	}
	audioCfg := recording.DefaultAudioConfig()
	audioCfg.InputDevice = *device

	recorder := recording.NewController(
		audio.NewFFMPEGCapture(*ffmpeg, captureOpts...),
		audio.NewWAVAnalyzer(analysis.NewGateway(analysis.Config{URL: wsURL})),
		recording.Config{
			Audio: audioCfg,
			OnStatus: func(s recording.Status) {
				color.Cyan("status: %s", s)
			},
		},
	)

	var session *consultation.Session
	focus := audio.NewSignalFocusSource()
	defer focus.Close()
	monitor := recording.NewMonitor(audio.NewPulseDeviceLister(""), focus, recording.Callbacks{
		OnMicrophoneLost: func() {
			color.Yellow("Microphone lost, pausing")
			if err := session.Pause(ctx); err != nil {
				color.Red("pause: %v", err)
			}
		},
		OnMicrophoneRestored: func() {
			color.Green("Microphone restored, press r to resume")
		},
		OnInterruption: func(reason string) {
			color.Yellow("Interrupted (%s), pausing", reason)
			if err := session.Pause(ctx); err != nil {
				color.Red("pause: %v", err)
			}
		},
	}, recording.MonitorConfig{
		Gate: func() bool { return recorder.Status() == recording.StatusRecording },
	})

	session = consultation.NewSession(recorder, manager, monitor, *lang)
	defer session.Close()

	if err := session.Begin(ctx); err != nil {
		color.Red("Failed to start: %s", session.View().Error)
		os.Exit(1)
	}
	printView(session.View())
	fmt.Println(usage)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			color.Yellow("Interrupted, pausing encounter")
			_ = session.Pause(context.Background())
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if done := handle(ctx, session, line); done {
				return
			}
		}
	}
}

func handle(ctx context.Context, session *consultation.Session, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "p":
		err = session.Pause(ctx)
	case "r":
		err = session.Resume(ctx)
	case "c":
		err = session.Cancel(ctx)
		if err == nil {
			color.Yellow("Consultation cancelled")
			return true
		}
	case "f":
		color.Cyan("Analyzing...")
		outcome, ferr := session.Finish(ctx)
		if ferr != nil {
			err = ferr
			break
		}
		printOutcome(session, outcome)
		return true
	case "o":
		if len(fields) != 3 {
			color.Red("usage: o <speaker-id> <role>")
			return false
		}
		err = session.OverrideSpeaker(fields[1], speaker.Role(fields[2]))
		if err == nil && session.Outcome() != nil {
			printLines(session.Labeled())
		}
	case "s":
	case "q":
		return true
	default:
		fmt.Println(usage)
		return false
	}

	if err != nil {
		color.Red("Error: %v", err)
	}
	printView(session.View())
	return false
}

func printView(v consultation.View) {
	color.Cyan("[%s] %02d:%02d encounter=%s", v.Status, v.ElapsedSeconds/60, v.ElapsedSeconds%60, v.EncounterStatus)
	if v.Error != "" {
		color.Red("  %s", v.Error)
	}
	if v.EncounterError != "" {
		color.Yellow("  encounter: %s", v.EncounterError)
	}
}

func printOutcome(session *consultation.Session, outcome *analysis.Outcome) {
	if outcome == nil {
		color.Yellow("No analysis result")
		return
	}
	color.Green("Analysis complete (language: %s)", outcome.Language)

	b, err := json.MarshalIndent(outcome.Fields, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", outcome.Fields)
	} else {
		fmt.Println(string(b))
	}
	printLines(session.Labeled())
}

func printLines(lines []speaker.LabeledLine) {
	for _, l := range lines {
		c := color.New(color.FgWhite)
		switch l.Role {
		case speaker.RoleProvider:
			c = color.New(color.FgCyan)
		case speaker.RolePatient:
			c = color.New(color.FgGreen)
		}
		c.Printf("%s (%s): ", l.Role, l.SpeakerID)
		fmt.Println(l.Text)
	}
}
