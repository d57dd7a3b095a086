// Package whisperx runs the local WhisperX (faster-whisper) language probe.
// Each call transcribes one short WAV clip through a Python helper and
// returns the identified language with its probability distribution.
package whisperx
