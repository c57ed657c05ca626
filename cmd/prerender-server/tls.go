package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// generateSelfSignedCert creates a self-signed certificate and key at certFile
// and keyFile. It is meant for local testing of the TLS protocol detection.
func generateSelfSignedCert(certFile, keyFile string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generating private key: %w", err)
	}

	hostname, _ := os.Hostname()

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"Prerender Server"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost", hostname},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	derCert, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("creating certificate: %w", err)
	}

	if err := writePEM(certFile, 0644, &pem.Block{Type: "CERTIFICATE", Bytes: derCert}); err != nil {
		return err
	}
	keyBytes := x509.MarshalPKCS1PrivateKey(privateKey)
	return writePEM(keyFile, 0600, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: keyBytes})
}

func writePEM(path string, perm os.FileMode, block *pem.Block) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := pem.Encode(out, block); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// startServer starts the provided HTTP server with TLS if enabled in config.
// It returns nil once the server is closed by Shutdown.
func startServer(server *http.Server) error {
	configLock.RLock()
	enableTLS, certFile, keyFile := config.EnableTLS, config.CertFile, config.KeyFile
	configLock.RUnlock()

	var err error
	if enableTLS {
		if _, statErr := os.Stat(certFile); os.IsNotExist(statErr) {
			logger.Info("certificate file not found, generating a self-signed certificate", zap.String("cert_file", certFile))
			if err := generateSelfSignedCert(certFile, keyFile); err != nil {
				return err
			}
		}
		logger.Info("starting HTTPS server", zap.String("addr", server.Addr), zap.String("cert_file", certFile))
		err = server.ListenAndServeTLS(certFile, keyFile)
	} else {
		logger.Info("starting HTTP server with h2c support", zap.String("addr", server.Addr))
		err = server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
