package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/drgolem/directoryplayer/internal/resampler"
	"github.com/drgolem/directoryplayer/pkg/decoders"

	"github.com/spf13/cobra"
	wav "github.com/youpy/go-wav"
)

var transformCmd = &cobra.Command{
	Use:   "transform <input_file>",
	Short: "Resample an audio file and write it out as a WAV file",
	Long: `transform decodes an MP3/FLAC/WAV/OGG file to planar f32, resamples it
to a new sample rate through the same resampler facade the playback core
uses, and writes the result as 16-bit PCM WAV.

Examples:
  directoryplayer transform input.mp3 --new-samplerate 48000 --out output.wav
  directoryplayer transform input.flac --new-samplerate 44100 --mono --out output.wav`,
	Args: cobra.ExactArgs(1),
	Run:  runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().Int("new-samplerate", 48000, "Target sample rate in Hz")
	transformCmd.Flags().String("out", "out_transformed.wav", "Output WAV file path")
	transformCmd.Flags().Bool("mono", false, "Convert output to mono (average channels)")
}

func runTransform(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	if _, err := os.Stat(inFileName); os.IsNotExist(err) {
		slog.Error("Input file not found", "path", inFileName)
		os.Exit(1)
	}

	newSampleRate, _ := cmd.Flags().GetInt("new-samplerate")
	outFileName, _ := cmd.Flags().GetString("out")
	convertToMono, _ := cmd.Flags().GetBool("mono")

	if newSampleRate <= 0 || newSampleRate > 384000 {
		slog.Error("Invalid sample rate", "rate", newSampleRate, "valid_range", "1-384000")
		os.Exit(1)
	}

	decoder, err := decoders.NewDecoder(inFileName)
	if err != nil {
		slog.Error("Failed to open decoder", "error", err)
		os.Exit(1)
	}
	defer decoder.Close()

	inSampleRate, channels, _ := decoder.Format()

	slog.Info("Audio transformation starting",
		"input_file", inFileName,
		"input_sample_rate", inSampleRate,
		"input_channels", channels,
		"output_sample_rate", newSampleRate,
		"output_mono", convertToMono,
		"output_file", outFileName)

	planar, err := decodeAllAudio(decoder, channels)
	if err != nil {
		slog.Error("Failed to decode audio", "error", err)
		os.Exit(1)
	}
	totalFrames := 0
	if len(planar) > 0 {
		totalFrames = len(planar[0])
	}
	slog.Info("Decoding complete", "input_frames", totalFrames)

	resampled, err := resampleAll(planar, inSampleRate, newSampleRate, channels)
	if err != nil {
		slog.Error("Failed to resample audio", "error", err)
		os.Exit(1)
	}
	outFrames := 0
	if len(resampled) > 0 {
		outFrames = len(resampled[0])
	}
	slog.Info("Resampling complete", "output_frames", outFrames)

	outChannels := channels
	if convertToMono && channels > 1 {
		resampled = [][]float32{mixToMono(resampled)}
		outChannels = 1
		slog.Info("Converted to mono")
	}

	pcm := planarToInterleavedInt16(resampled, outChannels)

	if err := writeWAVFile(outFileName, pcm, uint32(outFrames), uint16(outChannels), uint32(newSampleRate)); err != nil {
		slog.Error("Failed to write WAV file", "error", err)
		os.Exit(1)
	}

	slog.Info("Transformation complete",
		"input_frames", totalFrames,
		"output_frames", outFrames,
		"sample_rate_ratio", fmt.Sprintf("%.3f", float64(newSampleRate)/float64(inSampleRate)))
}

// decodeAllAudio drains decoder into one planar f32 buffer, channel by
// channel, growing as packets arrive.
func decodeAllAudio(decoder decoderFormat, channels int) ([][]float32, error) {
	out := make([][]float32, channels)

	for {
		packet, err := decoder.DecodePacket()
		if len(packet) > 0 && len(packet[0]) > 0 {
			for ch := 0; ch < channels && ch < len(packet); ch++ {
				out[ch] = append(out[ch], packet[ch]...)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode error: %w", err)
		}
	}
}

// decoderFormat is the subset of types.AudioDecoder transform.go needs,
// named locally so decodeAllAudio doesn't have to import pkg/types just
// for this one method.
type decoderFormat interface {
	DecodePacket() ([][]float32, error)
}

// resampleAll runs the whole planar buffer through a single resampler
// instance in one block, since a one-shot CLI conversion has no realtime
// block-size constraint to honor.
func resampleAll(planar [][]float32, fromRate, toRate, channels int) ([][]float32, error) {
	if fromRate == toRate {
		return planar, nil
	}
	frames := 0
	if len(planar) > 0 {
		frames = len(planar[0])
	}

	r, err := resampler.New(fromRate, toRate, channels, frames)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Flush(planar)
	if err != nil {
		return nil, fmt.Errorf("failed to resample: %w", err)
	}
	return out, nil
}

func mixToMono(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}
	frames := len(planar[0])
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := range planar {
			sum += planar[ch][i]
		}
		mono[i] = sum / float32(len(planar))
	}
	return mono
}

func planarToInterleavedInt16(planar [][]float32, channels int) []byte {
	if len(planar) == 0 {
		return nil
	}
	frames := len(planar[0])
	out := make([]byte, frames*channels*2)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			s := planar[ch][i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			v := int16(s * 32767)
			idx := (i*channels + ch) * 2
			out[idx] = byte(v)
			out[idx+1] = byte(v >> 8)
		}
	}
	return out
}

func writeWAVFile(fileName string, pcm []byte, numSamples uint32, numChannels uint16, sampleRate uint32) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fOut.Close()

	wavWriter := wav.NewWriter(fOut, numSamples, numChannels, sampleRate, 16)
	if _, err := wavWriter.Write(pcm); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}
