package cli

import (
	"context"
	"fmt"
	"os"
)

// mfaQRFile is where mfa-setup writes the enrollment QR code.
const mfaQRFile = "gophvault-mfa.png"

var writeFile = os.WriteFile

func (a *App) MfaSetup(ctx context.Context) error {
	pw, err := a.masterPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	setup, err := a.client.MfaSetup(ctx, pw)
	if err != nil {
		return a.check(ctx, err)
	}

	fmt.Fprintln(a.out, "Add this account to your authenticator app:")
	fmt.Fprintln(a.out, "  secret:", setup.Secret)
	fmt.Fprintln(a.out, "  uri:   ", setup.ProvisioningURI)
	if len(setup.QRCodePNG) > 0 {
		if err := writeFile(mfaQRFile, setup.QRCodePNG, 0o600); err != nil {
			fmt.Fprintln(a.out, "could not write QR code:", err)
		} else {
			fmt.Fprintln(a.out, "  qr:    ", mfaQRFile)
		}
	}
	fmt.Fprintln(a.out, "Then run mfa-enable with a code from the app.")
	return nil
}

func (a *App) mfaCodeAndPassword() (string, string, error) {
	pw, err := a.masterPassword()
	if err != nil {
		return "", "", err
	}
	code, err := GetSimpleText(a.reader, "Authenticator code", a.out)
	if err != nil {
		return "", "", err
	}
	return pw, code, nil
}

func (a *App) MfaEnable(ctx context.Context) error {
	pw, code, err := a.mfaCodeAndPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	state, err := a.client.MfaEnable(ctx, pw, code)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintln(a.out, "Two-factor authentication", state)
	return nil
}

func (a *App) MfaDisable(ctx context.Context) error {
	pw, code, err := a.mfaCodeAndPassword()
	if err != nil {
		return err
	}

	ctx, cancel := a.rpc(ctx)
	defer cancel()

	state, err := a.client.MfaDisable(ctx, pw, code)
	if err != nil {
		return a.check(ctx, err)
	}
	fmt.Fprintln(a.out, "Two-factor authentication", state)
	return nil
}
