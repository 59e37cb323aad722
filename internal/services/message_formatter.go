package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	domain "github.com/soigrad/soi/internal/domain"
)

const (
	messageDivider       = "-------------------------"
	unspecifiedColor     = "لم يحدد"
	messageCurrencyLabel = "دينار عراقي"
	imageFollowupHeading = "*ملاحظة هامة: يرجى من الزبون الآن إرسال الصور الخاصة بالتصاميم التالية:*"
	designDetailsHeading = "*🎨 تفاصيل التصميم:*"
	addonsHeading        = "*✨ إضافات:*"
	customerBlockHeading = "*👤 بيانات الزبون:*"
	orderBlockHeading    = "*📦 تفاصيل الطلب:*"
	colorsBlockHeading   = "*🎨 ألوان القماش والتصميم:*"
	messageGreetingLine  = "*طلب جديد من موقع SOI* 🎉"
)

// priceLocale keeps the Arabic locale's grouping but forces Latin digits.
// Customers and staff read the amount as "69,000", not "٦٩٬٠٠٠".
var priceLocale = language.MustParse("ar-u-nu-latn")

// MessageFormatter renders an order into the WhatsApp summary text. Free-text
// user input is stripped of any markup before it is embedded, and the price
// integer is grouped with thousands separators in Latin digits.
type MessageFormatter struct {
	printer *message.Printer
	policy  *bluemonday.Policy
}

// NewMessageFormatter constructs a formatter with the storefront's locale.
func NewMessageFormatter() *MessageFormatter {
	return &MessageFormatter{
		printer: message.NewPrinter(priceLocale),
		policy:  bluemonday.StrictPolicy(),
	}
}

// Format produces the order summary message. Field blocks are emitted only
// for fields carrying an image or a description; the addons block is omitted
// when no addon is selected; fields with images are listed again at the end
// because the transport cannot carry attachments inline.
func (f *MessageFormatter) Format(order domain.Order) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(messageGreetingLine + "\n")
	b.WriteString(messageDivider + "\n")

	b.WriteString(customerBlockHeading + "\n")
	b.WriteString("الاسم: " + f.clean(order.CustomerName) + "\n")
	b.WriteString("رقم الهاتف: " + f.clean(order.Phone) + "\n")
	b.WriteString("العنوان: " + f.clean(order.Address) + "\n")
	b.WriteString(messageDivider + "\n")

	b.WriteString(orderBlockHeading + "\n")
	b.WriteString("البكج: *" + packageLine(order.PackageID) + "*\n")
	b.WriteString("النوع: *" + string(order.CustomizationType) + "*\n")
	b.WriteString(messageDivider + "\n")

	b.WriteString(colorsBlockHeading + "\n")
	b.WriteString("- لون الروب: *" + f.colorOrPlaceholder(order.RobeColor) + "*\n")
	b.WriteString("- لون القبعة: *" + f.colorOrPlaceholder(order.CapColor) + "*\n")
	b.WriteString("- لون الوشاح: *" + f.colorOrPlaceholder(order.SashColor) + "*\n")
	b.WriteString("- لون " + string(order.CustomizationType) + ": *" + f.colorOrPlaceholder(order.CustomizationColor) + "*\n")
	b.WriteString(messageDivider + "\n")

	if len(order.Addons) > 0 {
		b.WriteString(addonsHeading + "\n")
		for _, addon := range order.Addons {
			b.WriteString("- " + string(addon) + "\n")
		}
		b.WriteString(messageDivider + "\n")
	}

	b.WriteString(designDetailsHeading + "\n")
	var fieldsWithImages []string
	for _, field := range order.Fields {
		hasImage := field.Image != nil
		hasDescription := strings.TrimSpace(field.Description) != ""
		if !hasImage && !hasDescription {
			continue
		}
		b.WriteString("\n*" + field.Label + ":*\n")
		if hasImage {
			b.WriteString("  - تم رفع صورة: " + f.clean(field.Image.Name) + "\n")
			fieldsWithImages = append(fieldsWithImages, field.Label)
		}
		if hasDescription {
			b.WriteString("  - الوصف: " + f.clean(field.Description) + "\n")
		}
	}

	if len(fieldsWithImages) > 0 {
		b.WriteString("\n" + imageFollowupHeading + "\n")
		for i, label := range fieldsWithImages {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + label)
		}
	}

	b.WriteString("\n" + messageDivider + "\n")
	b.WriteString("*💰 السعر الإجمالي: " + f.FormatPrice(order.TotalPrice) + " " + messageCurrencyLabel + "*\n")

	return b.String()
}

// FormatPrice renders the whole-dinar amount with locale digit grouping.
func (f *MessageFormatter) FormatPrice(amount int64) string {
	return f.printer.Sprintf("%d", amount)
}

// clean strips markup from user-entered text so it travels as plain text.
func (f *MessageFormatter) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(f.policy.Sanitize(value)))
}

func (f *MessageFormatter) colorOrPlaceholder(value string) string {
	cleaned := f.clean(value)
	if cleaned == "" {
		return unspecifiedColor
	}
	return cleaned
}

func packageLine(id *domain.PackageID) string {
	if id == nil {
		return unspecifiedColor
	}
	return string(*id)
}
