package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/vibetracker/vibetracker"
	"github.com/vibetracker/vibetracker/cmd"
	"github.com/vibetracker/vibetracker/engine"
	"github.com/vibetracker/vibetracker/oto"
	"github.com/vibetracker/vibetracker/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original composition file is.")
	play := flag.Bool("p", false, "Play the input compositions live, looping until interrupted (default behaviour when no other output is defined).")
	loops := flag.Int("l", 1, "Number of loop iterations to render when outputting files.")
	rawOut := flag.Bool("r", false, "Output the rendered composition as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered composition as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	midiInput := flag.String("midi-input", "", "Open the first MIDI input whose name starts with the given prefix, for playing instruments live.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	process := func(filename string) error {
		var comp vibetracker.Composition
		if filename == "" {
			comp = engine.DefaultComposition()
		} else {
			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("could not open file %v: %w", filename, err)
			}
			comp, err = vibetracker.ReadComposition(f)
			f.Close()
			if err != nil {
				return err
			}
		}
		if *rawOut || *wavOut {
			buffer, err := engine.Render(comp, *loops)
			if err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			if *rawOut {
				raw, err := buffer.Raw(*pcm)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %w", err)
				}
				if err := output(filename, ".raw", raw, *stdout, *directory); err != nil {
					return fmt.Errorf("error outputting .raw file: %w", err)
				}
			}
			if *wavOut {
				wav, err := buffer.Wav(*pcm)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %w", err)
				}
				if err := output(filename, ".wav", wav, *stdout, *directory); err != nil {
					return fmt.Errorf("error outputting .wav file: %w", err)
				}
			}
		}
		if *play {
			if err := playLive(comp, *midiInput); err != nil {
				return err
			}
		}
		return nil
	}
	retval := 0
	if flag.NArg() == 0 {
		if err := process(""); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			retval = 1
		}
		os.Exit(retval)
	}
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			files, err := globCompositions(param)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				retval = 1
				continue
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// playLive runs the composition through the audio device, adopting MIDI
// input if requested, until the process is interrupted.
func playLive(comp vibetracker.Composition, midiPrefix string) error {
	audioContext, err := oto.NewContext()
	if err != nil {
		return fmt.Errorf("could not acquire audio context: %w", err)
	}
	defer audioContext.Close()
	broker := engine.NewBroker()
	midiContext := cmd.NewMidiContext(broker)
	defer midiContext.Close()
	if midiPrefix != "" {
		if err := midiContext.TryToOpenBy(midiPrefix, false); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
	eng := engine.NewEngine(audioContext, broker)
	if err := eng.Publish(comp); err != nil {
		return err
	}
	if err := eng.Start(); err != nil {
		return err
	}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	if err := eng.Stop(); err != nil {
		return err
	}
	return eng.Err()
}

func globCompositions(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("could not glob the path %v: %w", dir, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func output(filename, extension string, contents []byte, stdout bool, directory string) error {
	if stdout {
		os.Stdout.Write(contents)
		return nil
	}
	name := "composition"
	dir := directory
	if filename != "" {
		_, name = filepath.Split(filename)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if dir == "" {
			dir = filepath.Dir(filename)
		}
	}
	if dir == "" {
		// the built-in demo has no source file to sit next to
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	f := filepath.Join(dir, name+extension)
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", f, err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Vibetracker command line utility for playing and rendering .yml/.json composition files.\nUsage: %s [flags] [path ...]\nWith no paths, plays a built-in demo composition.\n", os.Args[0])
	flag.PrintDefaults()
}
