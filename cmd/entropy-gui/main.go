/*
* Main GUI application file
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Gilah-EnE/entropy_estimator/entropy"
	"github.com/Gilah-EnE/entropy_estimator/internal/config"
	"github.com/Gilah-EnE/entropy_estimator/internal/report"
	"github.com/mappu/miqt/qt"
)

func main() {
	cfg, configErr := config.LoadConfig()
	if configErr != nil {
		log.Printf("Could not load config: %v", configErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid config, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}
	cfg.Profile = true
	cfg.Compression = true
	cfg.Signatures = true

	qt.NewQApplication(os.Args)
	window := qt.NewQMainWindow(nil)
	window.SetWindowTitle("Shannon entropy estimator")
	window.SetMinimumSize2(800, 20)

	// Adding menu actions
	menuBar := window.MenuBar()

	fileMenu := qt.NewQMenu3("File")
	aboutAction := fileMenu.AddAction2(qt.QIcon_FromTheme("help-about"), "About")
	aboutQtAction := fileMenu.AddAction2(qt.NewQIcon4(":/qt-project.org/qmessagebox/images/qtlogo-64.png"), "About Qt")
	fileMenu.AddSeparator()
	exitAction := fileMenu.AddAction2(qt.QIcon_FromTheme("application-exit"), "Exit")
	menuBar.AddMenu(fileMenu)

	aboutAction.OnTriggered(func() {
		qt.QMessageBox_About(window.QWidget, "About", "Shannon entropy estimator 0.0.3\nEstimates the information entropy of a file and tells plain, binary and encrypted data apart.")
	})
	aboutQtAction.OnTriggered(func() {
		qt.QMessageBox_AboutQt(window.QWidget)
	})
	exitAction.OnTriggered(func() {
		window.Close()
	})

	// Creating window layouts
	widget := qt.NewQWidget(nil)
	mainLayout := qt.NewQVBoxLayout(widget)
	filePickerLayout := qt.NewQGridLayout(widget)
	resultsLayout := qt.NewQGridLayout(widget)

	// File picker button
	fileNameTextField := qt.NewQLineEdit(widget)
	fileNameTextField.SetPlaceholderText("Enter the path to the file")
	filePickerButton := qt.NewQPushButton4(qt.QIcon_FromTheme("document-open"), "Choose file")

	filePickerButton.OnClicked(func() {
		fileDialog := qt.NewQFileDialog4(widget, "Choose a file to analyse")

		fileDialog.SetFileMode(qt.QFileDialog__ExistingFile)
		fileDialog.SetNameFilter("All files (*)")

		if fileDialog.Exec() == int(qt.QDialog__Accepted) {
			selectedFile := fileDialog.SelectedFiles()
			if len(selectedFile) > 0 {
				fileNameTextField.SetText(selectedFile[0])
			}
		}
	})
	startButton := qt.NewQPushButton4(qt.QIcon_FromTheme("media-playback-start"), "Analyse")

	filePickerLayout.AddWidget2(fileNameTextField.QWidget, 0, 0)
	filePickerLayout.AddWidget2(filePickerButton.QWidget, 0, 1)
	filePickerLayout.AddWidget2(startButton.QWidget, 0, 2)

	// Values display widgets
	newDisplay := func() *qt.QLineEdit {
		display := qt.NewQLineEdit(widget)
		display.SetReadOnly(true)
		return display
	}
	entropyDisplay := newDisplay()
	classificationDisplay := newDisplay()
	minSizeDisplay := newDisplay()
	profileDisplay := newDisplay()
	encryptedShareDisplay := newDisplay()
	uniformityDisplay := newDisplay()
	autoCorrDisplay := newDisplay()
	compressionDisplay := newDisplay()
	smallestDisplay := newDisplay()
	sigDisplay := newDisplay()

	// Placing them in grid with their respecting labels
	rows := []struct {
		label   string
		display *qt.QLineEdit
	}{
		{"Information entropy, bits per byte", entropyDisplay},
		{"Information entropy estimation", classificationDisplay},
		{"Min possible file size, bytes", minSizeDisplay},
		{"Block entropy mean / std. dev.", profileDisplay},
		{"Encrypted blocks, %", encryptedShareDisplay},
		{"KS distance / chi-square", uniformityDisplay},
		{"Autocorrelation mean", autoCorrDisplay},
		{"Mean compression ratio", compressionDisplay},
		{"Smallest compressed size", smallestDisplay},
		{"Signatures per megabyte", sigDisplay},
	}
	for i, row := range rows {
		resultsLayout.AddWidget2(qt.NewQLabel3(row.label).QWidget, i+1, 0)
		resultsLayout.AddWidget2(row.display.QWidget, i+1, 1)
	}

	// Combining sublayouts into the main layout
	mainLayout.AddLayout(filePickerLayout.QLayout)
	mainLayout.AddLayout(resultsLayout.QLayout)

	// Log window (read-only)
	logWindow := qt.NewQTextEdit4("Analysis log", widget)
	logWindow.SetReadOnly(true)
	logWindow.SetFont(qt.NewQFont2("monospace"))
	mainLayout.AddWidget(logWindow.QWidget)

	showError := func(message string) {
		errorWindow := qt.NewQErrorMessage(widget)
		errorWindow.ShowMessage(message)
	}

	startButton.OnClicked(func() {
		logWindow.Clear()
		for _, row := range rows {
			row.display.SetText("")
		}
		fileName := fileNameTextField.Text()

		if fileName == "" {
			showError("The path to the input file is empty.")
			return
		}

		inputFileStat, inputFileStatErr := os.Stat(fileName)
		if errors.Is(inputFileStatErr, os.ErrNotExist) {
			showError("The requested file was not found. Check the path and try again.")
			return
		} else if inputFileStatErr != nil {
			showError(fmt.Sprintf("Could not access the file: %v", inputFileStatErr))
			return
		}
		if inputFileStat.IsDir() {
			showError("The path points to a directory. Check the path and try again.")
			return
		}

		fileLogger := log.New(os.Stderr, "", log.LstdFlags)
		logPath := report.LogPath(fileName, cfg.OutputDir)
		logger, logCloser, logOpenErr := report.OpenLog(logPath)
		if logOpenErr != nil {
			log.Printf("Could not open log file %s: %v", logPath, logOpenErr)
		} else {
			defer func() {
				if logCloseErr := logCloser.Close(); logCloseErr != nil {
					log.Printf("Could not close log file: %v", logCloseErr)
				}
			}()
			fileLogger = logger
		}

		welcomeText := fmt.Sprintf("File name: %s, block size: %d bytes.\n", fileName, cfg.ProfileBlockSize)
		logWindow.Append(welcomeText)
		fileLogger.Println(welcomeText)

		est := entropy.NewEstimator(
			entropy.WithChunkSize(cfg.ChunkSize),
			entropy.WithProgress(func(processed uint64) {
				fmt.Printf("%.1f MB\r", float32(processed)/1048576)
			}),
		)
		analysis, err := report.AnalyzeFile(context.Background(), est, fileName, report.OptionsFromConfig(cfg))
		fmt.Println()
		if err != nil {
			errText := fmt.Sprintf("Analysis failed: %v", err)
			logWindow.Append(errText)
			fileLogger.Println(errText)
			showError(errText)
			return
		}

		res := analysis.Result
		entropyDisplay.SetText(report.FormatEntropy(res.Entropy))
		classificationDisplay.SetText(analysis.Label)
		minSizeDisplay.SetText(strconv.FormatUint(res.MinCompressedSize, 10))
		if p := analysis.Profile; p != nil {
			profileDisplay.SetText(fmt.Sprintf("%f / %f", p.Mean, p.StdDev))
			encryptedShareDisplay.SetText(strconv.FormatFloat(p.EncryptedShare()*100, 'f', 1, 64))
			uniformityDisplay.SetText(fmt.Sprintf("%f / %f", p.Uniformity.KSDistance, p.Uniformity.ChiSquare))
		}
		if ac := analysis.Autocorrelation; ac != nil {
			autoCorrDisplay.SetText(strconv.FormatFloat(ac.Mean, 'f', -1, 64))
		}
		if c := analysis.Compression; c != nil {
			compressionDisplay.SetText(strconv.FormatFloat(c.MeanRatio, 'f', -1, 64))
			if len(c.Codecs) > 0 {
				best := c.Smallest()
				smallestDisplay.SetText(fmt.Sprintf("%d bytes (%s)", best.CompressedSize, best.Codec))
			}
		}
		if s := analysis.Signatures; s != nil {
			sigDisplay.SetText(strconv.FormatFloat(s.PerMiB, 'f', -1, 64))
		}

		for _, line := range analysis.Lines() {
			logWindow.Append(line)
		}
		report.LogAnalysis(fileLogger, analysis)
		fileLogger.Printf("File %s has been analyzed. Time: %s", fileName, res.Elapsed)
	})

	// Window deployment
	window.SetCentralWidget(widget)
	window.Show()
	qt.QApplication_Exec()
}
