package payment

import "sort"

// Field is one configuration value of a gateway. The stored setting key is
// "<method>_<Key>".
type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Secret   bool   `json:"secret"`
}

// Descriptor describes how a gateway is configured: which settings feed it,
// which are mandatory and which hold credentials.
type Descriptor struct {
	Method string  `json:"method"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
	// HasMode adds a "<method>_mode" setting taking sandbox or live.
	HasMode bool `json:"hasMode"`
	// Offline methods are settled by an administrator, never by a gateway.
	Offline bool `json:"offline"`
}

func (d Descriptor) SettingKey(field string) string {
	return d.Method + "_" + field
}

func (d Descriptor) EnabledKey() string { return d.Method + "_enabled" }

func (d Descriptor) ModeKey() string { return d.Method + "_mode" }

func (d Descriptor) field(key string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func req(key, label string) Field { return Field{Key: key, Label: label, Required: true} }
func secret(key, label string) Field {
	return Field{Key: key, Label: label, Required: true, Secret: true}
}
func opt(key, label string) Field { return Field{Key: key, Label: label} }

func gateway(method, label string, fields ...Field) Descriptor {
	return Descriptor{Method: method, Label: label, Fields: fields, HasMode: true}
}

const MethodBankTransfer = "bank_transfer"

var descriptors = []Descriptor{
	{Method: MethodBankTransfer, Label: "Bank Transfer", Offline: true, Fields: []Field{req("details", "Bank details")}},
	gateway("stripe", "Stripe", req("key", "Publishable key"), secret("secret", "Secret key")),
	gateway("paypal", "PayPal", req("client_id", "Client ID"), secret("secret_key", "Secret key")),
	gateway("razorpay", "Razorpay", req("public_key", "Key ID"), secret("secret_key", "Key secret")),
	gateway("paystack", "Paystack", req("public_key", "Public key"), secret("secret_key", "Secret key")),
	gateway("flutterwave", "Flutterwave", req("public_key", "Public key"), secret("secret_key", "Secret key")),
	gateway("mercadopago", "Mercado Pago", secret("access_token", "Access token")),
	gateway("mollie", "Mollie", secret("api_key", "API key"), opt("profile_id", "Profile ID"), opt("partner_id", "Partner ID")),
	gateway("skrill", "Skrill", req("email", "Merchant email")),
	gateway("coingate", "CoinGate", secret("auth_token", "Auth token")),
	gateway("paymentwall", "Paymentwall", req("public_key", "Project key"), secret("private_key", "Secret key")),
	gateway("toyyibpay", "toyyibPay", secret("secret_key", "User secret key"), req("category_code", "Category code")),
	gateway("payfast", "PayFast", req("merchant_id", "Merchant ID"), secret("merchant_key", "Merchant key"), secret("salt_passphrase", "Salt passphrase")),
	gateway("iyzipay", "Iyzipay", req("public_key", "API key"), secret("secret_key", "Secret key")),
	gateway("sspay", "SSPay", secret("secret_key", "Secret key"), req("category_code", "Category code")),
	gateway("paytab", "PayTabs", req("profile_id", "Profile ID"), secret("server_key", "Server key"), req("region", "Region")),
	gateway("benefit", "Benefit", req("api_key", "API key"), secret("secret_key", "Secret key")),
	gateway("cashfree", "Cashfree", req("app_id", "App ID"), secret("secret_key", "Secret key")),
	gateway("aamarpay", "aamarPay", req("store_id", "Store ID"), secret("signature_key", "Signature key"), opt("description", "Description")),
	gateway("paytr", "PayTR", req("merchant_id", "Merchant ID"), secret("merchant_key", "Merchant key"), secret("merchant_salt", "Merchant salt")),
	gateway("yookassa", "YooKassa", req("shop_id", "Shop ID"), secret("secret_key", "Secret key")),
	gateway("midtrans", "Midtrans", secret("secret_key", "Server key")),
	gateway("xendit", "Xendit", req("api_key", "API key"), secret("token", "Callback token")),
	gateway("paiementpro", "Paiement Pro", req("merchant_id", "Merchant ID")),
	gateway("nepalste", "Nepalste", req("public_key", "Public key"), secret("secret_key", "Secret key")),
	gateway("cinetpay", "CinetPay", secret("api_key", "API key"), req("site_id", "Site ID")),
	gateway("fedapay", "FedaPay", req("public_key", "Public key"), secret("secret_key", "Secret key")),
	gateway("payhere", "PayHere", req("merchant_id", "Merchant ID"), secret("merchant_secret", "Merchant secret"), req("app_id", "App ID"), secret("app_secret", "App secret")),
	gateway("khalti", "Khalti", req("public_key", "Public key"), secret("secret_key", "Secret key")),
	gateway("authorizenet", "Authorize.Net", req("merchant_login_id", "API login ID"), secret("merchant_transaction_key", "Transaction key")),
	gateway("tap", "Tap", secret("secret_key", "Secret key")),
	gateway("ozow", "Ozow", req("site_key", "Site code"), secret("private_key", "Private key"), secret("api_key", "API key")),
	gateway("easebuzz", "Easebuzz", req("merchant_key", "Merchant key"), secret("salt_key", "Salt key"), opt("environment", "Environment")),
	gateway("payu", "PayU", req("merchant_key", "Merchant key"), secret("salt_key", "Merchant salt")),
}

var byMethod = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Method] = d
	}
	return m
}()

// Lookup returns the descriptor of a method.
func Lookup(method string) (Descriptor, bool) {
	d, ok := byMethod[method]
	return d, ok
}

// Descriptors lists every supported method, bank transfer first, then by
// label.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	rest := out[1:]
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Label < rest[j].Label })
	return out
}

// SecretSettingKeys lists every settings key holding a credential.
func SecretSettingKeys() map[string]bool {
	keys := map[string]bool{}
	for _, d := range descriptors {
		for _, f := range d.Fields {
			if f.Secret {
				keys[d.SettingKey(f.Key)] = true
			}
		}
	}
	return keys
}
