package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/esimov/avatar/filestore"
	"github.com/esimov/avatar/generator"
	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/store"
	"github.com/esimov/avatar/utils"
	"github.com/esimov/avatar/validation"
	"golang.org/x/term"
)

const helpBanner = `
┌─┐┬  ┬┌─┐┌┬┐┌─┐┬─┐
├─┤└┐┌┘├─┤ │ ├─┤├┬┘
┴ ┴ └┘ ┴ ┴ ┴ ┴ ┴┴└─

Deterministic identity icons.
    Version: %s

`

// pipeName is the file name that indicates stdin is being used.
const pipeName = "-"

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Version indicates the current build version.
var Version = "dev"

var (
	source      = flag.String("in", pipeName, "File with one email address or hash per line")
	destination = flag.String("out", "icons", "Destination directory")
	kinds       = flag.String("kind", string(generator.Rings), "Comma separated icon kinds or \"all\"")
	size        = flag.Int("size", 80, "Icon size in pixels")
	partsDir    = flag.String("parts", "", "Directory holding the wavatars and monsterid sprites")
	vector      = flag.Bool("svg", false, "Keep the vector icons as SVG")
	check       = flag.Bool("check", false, "Report which identities have a remote avatar")
	endpoint    = flag.String("endpoint", validation.DefaultEndpoint, "Remote avatar service probed by -check")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of icons to generate concurrently")
)

// job is a single icon to generate.
type job struct {
	line string
	hash identity.Hash
	gen  generator.Generator
}

// result holds the outcome of a job.
type result struct {
	job
	file   string
	size   int
	remote validation.Status
	err    error
}

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	gens, err := selectGenerators(*kinds, generator.Options{
		Parts:     partsFS(*partsDir),
		Rasterize: !*vector,
	})
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if *size <= 0 || *size > generator.MaxSize {
		log.Fatal(utils.DecorateText(fmt.Sprintf("The icon size must be between 1 and %d", generator.MaxSize), utils.ErrorMessage))
	}
	if *check && !utils.IsValidUrl(*endpoint) {
		log.Fatal(utils.DecorateText(fmt.Sprintf("Invalid endpoint: %q", *endpoint), utils.ErrorMessage))
	}

	src, err := openSource(*source)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	defer src.Close()

	files, err := filestore.NewLocal(*destination, "", nil)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	var validator *validation.Validator
	if *check {
		validator = validation.New(store.NewMemory(store.Options{}), validation.NewHTTPProber(*endpoint, 0), validation.Options{})
	}

	// Limit the concurrently running workers to maxWorkers.
	if *workers <= 0 || *workers > maxWorkers {
		*workers = runtime.NumCPU()
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ AVATAR", utils.StatusMessage),
		utils.DecorateText("is generating the icons...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*100, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	spinner.Start()

	done := make(chan struct{})
	jobs, errc := readIdentities(done, src, gens, func() { spinner.Add(1) })
	res := make(chan result)

	var wg sync.WaitGroup
	wg.Add(*workers)
	for i := 0; i < *workers; i++ {
		go func() {
			defer wg.Done()
			consumer(ctx, done, jobs, files, validator, *size, res)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(res)
		wg.Wait()
	}()

	var (
		results []result
		total   uint64
		failed  int
	)
	for r := range res {
		spinner.Done()
		results = append(results, r)
		if r.err != nil {
			failed++
			continue
		}
		total += uint64(r.size)
	}
	close(done)

	spinner.StopMsg = fmt.Sprintf("%s %s\n",
		utils.DecorateText("⚡ AVATAR", utils.StatusMessage),
		utils.DecorateText("is generating the icons... ✔", utils.DefaultMessage))
	spinner.Stop()

	for _, r := range results {
		printStatus(os.Stderr, r, *check)
	}
	if err := <-errc; err != nil {
		fmt.Fprintln(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	fmt.Fprintf(os.Stderr, "\n%d icons (%s) written to %s in %s\n",
		len(results)-failed,
		humanize.Bytes(total),
		*destination,
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

// selectGenerators parses the -kind flag.
func selectGenerators(list string, opts generator.Options) ([]generator.Generator, error) {
	if list == "all" {
		return generator.All(opts)
	}
	var gens []generator.Generator
	for _, name := range strings.Split(list, ",") {
		kind, err := generator.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		g, err := generator.New(kind, opts)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

func partsFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}

// openSource opens the identity list, refusing an interactive stdin.
func openSource(in string) (io.ReadCloser, error) {
	if in == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	return f, nil
}

// readIdentities starts a goroutine that reads one identity per line and
// sends a job per generator on the returned channel. Blank lines and lines
// starting with # are skipped. The result of the scan is sent on the error
// channel. It terminates in case done channel is closed. queued, when not
// nil, is called for every job sent.
func readIdentities(done <-chan struct{}, r io.Reader, gens []generator.Generator, queued func()) (<-chan job, <-chan error) {
	jobs := make(chan job)
	errc := make(chan error, 1)

	go func() {
		defer close(jobs)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			h, err := identity.Parse(line)
			if err != nil {
				h = identity.FromEmail(line)
			}
			for _, g := range gens {
				if queued != nil {
					queued()
				}
				select {
				case <-done:
					errc <- errors.New("identity scan cancelled")
					return
				case jobs <- job{line: line, hash: h, gen: g}:
				}
			}
		}
		errc <- scanner.Err()
	}()
	return jobs, errc
}

// consumer generates the icons of the received jobs and stores them in the
// destination directory.
func consumer(
	ctx context.Context,
	done <-chan struct{},
	jobs <-chan job,
	files *filestore.Local,
	validator *validation.Validator,
	size int,
	res chan<- result,
) {
	for j := range jobs {
		r := result{job: j}
		if ctx.Err() != nil {
			r.err = ctx.Err()
		} else {
			r.file, r.size, r.err = generate(ctx, files, j, size)
			if r.err == nil && validator != nil {
				r.remote = validator.Validate(ctx, nil, j.hash, 0).Status
			}
		}

		select {
		case <-done:
			return
		case res <- r:
		}
	}
}

func generate(ctx context.Context, files *filestore.Local, j job, size int) (string, int, error) {
	data, err := j.gen.Build(j.hash, size)
	if err != nil {
		return "", 0, err
	}
	d := generator.Descriptor{Kind: j.gen.Kind(), Hash: j.hash, Size: size}
	name := d.Filename(generator.Extension(j.gen.MimeType()))
	if err := files.Set(ctx, name, data, true); err != nil {
		return "", 0, err
	}
	path, err := files.Path(name)
	return path, len(data), err
}

// printStatus displays the outcome of a job.
func printStatus(w io.Writer, r result, withRemote bool) {
	if r.err != nil {
		fmt.Fprintf(w, "%s %s\n",
			utils.DecorateText(fmt.Sprintf("Error generating the %s icon of %s:", r.gen.Kind(), r.line), utils.ErrorMessage),
			utils.DecorateText(r.err.Error(), utils.DefaultMessage),
		)
		return
	}
	status := ""
	if withRemote {
		switch r.remote {
		case validation.Confirmed:
			status = utils.DecorateText(" [remote avatar]", utils.SuccessMessage)
		case validation.Indeterminate:
			status = utils.DecorateText(" [remote unknown]", utils.WarningMessage)
		}
	}
	fmt.Fprintf(w, "%s %s%s\n",
		utils.DecorateText(r.file, utils.SuccessMessage),
		humanize.Bytes(uint64(r.size)),
		status,
	)
}
