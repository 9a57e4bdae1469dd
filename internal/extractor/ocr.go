package extractor

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// tesseractBin holds the resolved path to the tesseract binary.
// Set by DetectTesseract(). May be just "tesseract" if on PATH.
var tesseractBin string

// DetectTesseract checks whether the tesseract binary and its English
// training data are available.
func DetectTesseract() bool {
	path, err := exec.LookPath("tesseract")
	if err != nil {
		log.Printf("Tesseract OCR not found (install tesseract for scanned document support)")
		return false
	}

	// Verify eng.traineddata exists in this installation's tessdata.
	// TESSDATA_PREFIX overrides the install-relative default.
	tessdataDir := os.Getenv("TESSDATA_PREFIX")
	if tessdataDir == "" {
		tessdataDir = filepath.Join(filepath.Dir(path), "tessdata")
	}
	if _, statErr := os.Stat(filepath.Join(tessdataDir, "eng.traineddata")); statErr != nil {
		// Common on Linux where tessdata lives under /usr/share; trust the
		// binary to find its own data.
		if runtime.GOOS == "windows" {
			log.Printf("Tesseract at %s but eng.traineddata missing at %s", path, tessdataDir)
			return false
		}
	}

	tesseractBin = path
	log.Printf("Tesseract found on PATH: %s", path)
	return true
}

// DetectPdftoppm checks whether pdftoppm (Poppler) or magick (ImageMagick)
// is available for converting PDF pages to images.
func DetectPdftoppm() bool {
	if _, err := exec.LookPath("pdftoppm"); err == nil {
		return true
	}
	if _, err := exec.LookPath("magick"); err == nil {
		return true
	}
	return false
}

// tesseractSem limits concurrent Tesseract processes. Tesseract is
// CPU-intensive and too many instances thrash or run out of memory.
var tesseractSem = make(chan struct{}, runtime.NumCPU())

// runTesseract OCRs a single image file. psm selects the page segmentation
// mode: 3 for full rasterized pages, 6 for standalone images.
func runTesseract(imagePath, psm string) (string, error) {
	bin := tesseractBin
	if bin == "" {
		return "", fmt.Errorf("tesseract binary not found")
	}

	tesseractSem <- struct{}{}
	defer func() { <-tesseractSem }()

	cmd := exec.Command(bin, imagePath, "stdout", "-l", "eng", "--psm", psm)
	cmd.Env = append(os.Environ(),
		"OMP_THREAD_LIMIT=1", // disable Tesseract internal multithreading
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %v (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// ocrImage runs a single recognition pass over raw image bytes.
func ocrImage(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "loanmitra-img-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	tmp.Close()

	text, err := runTesseract(tmpPath, "6")
	if err != nil {
		return "", fmt.Errorf("image recognition failed: %w", err)
	}
	return text, nil
}

// ocrPDF rasterizes every page of a PDF to PNG and runs tesseract on each,
// concatenating the page texts separated by a blank line.
func ocrPDF(data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "loanmitra-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}

	imageFiles, err := rasterizePDF(pdfPath, filepath.Join(tmpDir, "page"))
	if err != nil {
		return "", err
	}

	// OCR pages concurrently; the package-level semaphore keeps total
	// Tesseract load bounded.
	pages := make([]string, len(imageFiles))
	var firstErrLogged sync.Once
	var wg sync.WaitGroup
	for i, imgFile := range imageFiles {
		wg.Add(1)
		go func(idx int, file string) {
			defer wg.Done()
			text, err := runTesseract(file, "3")
			if err != nil {
				firstErrLogged.Do(func() {
					log.Printf("Tesseract failed on page %d: %v", idx+1, err)
				})
				return
			}
			pages[idx] = text
		}(i, imgFile)
	}
	wg.Wait()

	text := joinPages(pages)
	if text == "" {
		return "", fmt.Errorf("tesseract OCR extracted no text from the pdf")
	}
	return text, nil
}

// rasterizePDF converts PDF pages to PNGs using pdftoppm, falling back to
// ImageMagick. Returned paths are sorted in page order.
func rasterizePDF(pdfPath, imagePrefix string) ([]string, error) {
	converted := false
	var convertErr error

	if pdftoppmPath, lookErr := exec.LookPath("pdftoppm"); lookErr == nil {
		cmd := exec.Command(pdftoppmPath, "-png", "-r", "200", pdfPath, imagePrefix)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err == nil {
			converted = true
		} else {
			convertErr = fmt.Errorf("pdftoppm: %v (stderr: %s)", err, stderr.String())
		}
	}

	if !converted {
		if magickPath, lookErr := exec.LookPath("magick"); lookErr == nil {
			cmd := exec.Command(magickPath, "convert", "-density", "200", pdfPath, imagePrefix+"-%03d.png")
			var stderr bytes.Buffer
			cmd.Stderr = &stderr
			if err := cmd.Run(); err == nil {
				converted = true
			} else {
				convertErr = fmt.Errorf("magick: %v (stderr: %s)", err, stderr.String())
			}
		}
	}

	if !converted {
		errMsg := "install Poppler (pdftoppm) or ImageMagick (magick)"
		if convertErr != nil {
			errMsg = convertErr.Error()
		}
		return nil, fmt.Errorf("cannot convert PDF to images: %s", errMsg)
	}

	imageFiles, err := filepath.Glob(imagePrefix + "*")
	if err != nil || len(imageFiles) == 0 {
		return nil, fmt.Errorf("no page images generated from PDF")
	}
	sortImageFiles(imageFiles)
	return imageFiles, nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\.png$`)

// sortImageFiles sorts image file paths by the page number embedded in the
// filename (pdftoppm emits page-1.png, page-2.png, ...).
func sortImageFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return extractNum(files[i]) < extractNum(files[j])
	})
}

func extractNum(path string) int {
	m := pageNumRe.FindStringSubmatch(filepath.Base(path))
	if len(m) >= 2 {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
